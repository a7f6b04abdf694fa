package generator

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/quill-cms/quill/internal/prompt"
)

// Database clients.
const (
	ClientSQLite   = "sqlite"
	ClientMySQL    = "mysql"
	ClientPostgres = "postgres"
)

// ValidClients lists the supported database clients.
var ValidClients = []string{ClientSQLite, ClientMySQL, ClientPostgres}

const defaultSQLiteFile = ".tmp/data.db"

var defaultPorts = map[string]string{
	ClientPostgres: "5432",
	ClientMySQL:    "3306",
}

// clientDrivers maps a client to its Node.js driver package and version.
var clientDrivers = map[string][2]string{
	ClientSQLite:   {"better-sqlite3", "8.6.0"},
	ClientPostgres: {"pg", "8.8.0"},
	ClientMySQL:    {"mysql2", "3.9.4"},
}

// Connection holds connection settings. SSL is nil when unspecified.
type Connection struct {
	Host     string `json:"host,omitempty"`
	Port     string `json:"port,omitempty"`
	Database string `json:"database,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Filename string `json:"filename,omitempty"`
	SSL      *bool  `json:"ssl,omitempty"`
}

// DatabaseInfo is the database part of a Scope.
type DatabaseInfo struct {
	Client           string     `json:"client"`
	Connection       Connection `json:"connection"`
	UseNullAsDefault bool       `json:"useNullAsDefault,omitempty"`
}

// DatabaseScope is what ParseDatabaseArguments contributes to a Scope.
type DatabaseScope struct {
	Database     DatabaseInfo
	Dependencies map[string]string
}

// defaultDatabase returns the default configuration of client.
func defaultDatabase(client string) DatabaseInfo {
	if client == ClientSQLite {
		return DatabaseInfo{
			Client:           ClientSQLite,
			Connection:       Connection{Filename: defaultSQLiteFile},
			UseNullAsDefault: true,
		}
	}
	return DatabaseInfo{Client: client}
}

// ClientDependencies returns the driver dependency of client.
func ClientDependencies(client string) map[string]string {
	d, ok := clientDrivers[client]
	if !ok {
		return map[string]string{}
	}
	return map[string]string{d[0]: d[1]}
}

func defaultScope() *DatabaseScope {
	return &DatabaseScope{
		Database:     defaultDatabase(ClientSQLite),
		Dependencies: ClientDependencies(ClientSQLite),
	}
}

// ParseDatabaseArguments resolves the database from the db flags. With no
// connection flag at all the user is asked, except in quickstart mode which
// takes the sqlite default. A non-sqlite client needs every connection flag.
func ParseDatabaseArguments(opts Options, p prompt.Prompter) (*DatabaseScope, error) {
	var matching, missing []string
	for _, arg := range DBArgs {
		if _, ok := opts.dbArg(arg); ok {
			matching = append(matching, arg)
		} else {
			missing = append(missing, arg)
		}
	}

	if len(matching) == 0 {
		return askDatabaseInfo(opts, p)
	}

	client, _ := opts.dbArg(ArgClient)
	if len(matching) != len(DBArgs) && client != ClientSQLite {
		return nil, &UsageError{Msg: fmt.Sprintf("Required database arguments are missing: %s.", strings.Join(missing, ", "))}
	}
	if !slices.Contains(ValidClients, client) {
		return nil, &UsageError{Msg: fmt.Sprintf("Invalid client %s. Possible choices: %s.", client, strings.Join(ValidClients, ", "))}
	}

	db := defaultDatabase(client)
	conn := &db.Connection
	override := func(dst *string, arg string) {
		if v, ok := opts.dbArg(arg); ok && v != "" {
			*dst = v
		}
	}
	override(&conn.Host, ArgHost)
	override(&conn.Port, ArgPort)
	override(&conn.Database, ArgName)
	override(&conn.Username, ArgUsername)
	override(&conn.Password, ArgPassword)
	override(&conn.Filename, ArgFile)

	if v, ok := opts.dbArg(ArgSSL); ok {
		ssl := v == "true"
		conn.SSL = &ssl
	}

	return &DatabaseScope{Database: db, Dependencies: ClientDependencies(client)}, nil
}

func askDatabaseInfo(opts Options, p prompt.Prompter) (*DatabaseScope, error) {
	if opts.Quickstart {
		return defaultScope(), nil
	}

	useDefault, err := p.Confirm("Use the default database (sqlite) ?", true)
	if err != nil {
		return nil, err
	}
	if useDefault {
		return defaultScope(), nil
	}

	client, err := p.Select("Choose your default database client", []prompt.Choice{
		{Label: "sqlite", Value: ClientSQLite},
		{Label: "postgres", Value: ClientPostgres},
		{Label: "mysql", Value: ClientMySQL},
	}, 0)
	if err != nil {
		return nil, err
	}

	db := defaultDatabase(client)
	if err := askConnection(client, &db.Connection, p); err != nil {
		return nil, err
	}
	return &DatabaseScope{Database: db, Dependencies: ClientDependencies(client)}, nil
}

func askConnection(client string, conn *Connection, p prompt.Prompter) error {
	var err error
	if client == ClientSQLite {
		conn.Filename, err = p.Input("Filename:", defaultSQLiteFile)
		return err
	}

	if conn.Database, err = p.Input("Database name:", "quill"); err != nil {
		return err
	}
	if conn.Host, err = p.Input("Host:", "127.0.0.1"); err != nil {
		return err
	}
	for {
		if conn.Port, err = p.Input("Port:", defaultPorts[client]); err != nil {
			return err
		}
		if _, convErr := strconv.Atoi(conn.Port); convErr == nil {
			break
		}
	}
	if conn.Username, err = p.Input("Username:", ""); err != nil {
		return err
	}
	if conn.Password, err = p.Password("Password:"); err != nil {
		return err
	}
	ssl, err := p.Confirm("Enable SSL connection:", false)
	if err != nil {
		return err
	}
	conn.SSL = &ssl
	return nil
}

// mergeInto copies the database scope into s.
func (d *DatabaseScope) mergeInto(s *Scope) {
	s.Database = d.Database
	if s.Dependencies == nil {
		s.Dependencies = make(map[string]string)
	}
	maps.Copy(s.Dependencies, d.Dependencies)
}
