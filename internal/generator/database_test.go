package generator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDatabaseArgumentsMissing(t *testing.T) {
	_, err := ParseDatabaseArguments(Options{DB: map[string]string{
		ArgClient: "postgres",
		ArgHost:   "localhost",
	}}, nil)

	var usage *UsageError
	require.True(t, errors.As(err, &usage))
	assert.Equal(t, "Required database arguments are missing: dbport, dbname, dbusername, dbpassword.", usage.Msg)
}

func TestParseDatabaseArgumentsInvalidClient(t *testing.T) {
	_, err := ParseDatabaseArguments(Options{DB: map[string]string{
		ArgClient:   "oracle",
		ArgHost:     "localhost",
		ArgPort:     "1521",
		ArgName:     "cms",
		ArgUsername: "admin",
		ArgPassword: "secret",
	}}, nil)
	require.EqualError(t, err, "Invalid client oracle. Possible choices: sqlite, mysql, postgres.")
}

func TestParseDatabaseArgumentsSQLiteClientOnly(t *testing.T) {
	scope, err := ParseDatabaseArguments(Options{DB: map[string]string{ArgClient: "sqlite"}}, nil)
	require.NoError(t, err)

	assert.Equal(t, ClientSQLite, scope.Database.Client)
	assert.Equal(t, ".tmp/data.db", scope.Database.Connection.Filename)
	assert.True(t, scope.Database.UseNullAsDefault)
	assert.Equal(t, map[string]string{"better-sqlite3": "8.6.0"}, scope.Dependencies)
}

func TestParseDatabaseArgumentsPostgres(t *testing.T) {
	scope, err := ParseDatabaseArguments(Options{DB: map[string]string{
		ArgClient:   "postgres",
		ArgHost:     "db.internal",
		ArgPort:     "5433",
		ArgName:     "cms",
		ArgUsername: "admin",
		ArgPassword: "secret",
		ArgSSL:      "true",
	}}, nil)
	require.NoError(t, err)

	c := scope.Database.Connection
	assert.Equal(t, ClientPostgres, scope.Database.Client)
	assert.Equal(t, "db.internal", c.Host)
	assert.Equal(t, "5433", c.Port)
	assert.Equal(t, "cms", c.Database)
	assert.Equal(t, "admin", c.Username)
	assert.Equal(t, "secret", c.Password)
	require.NotNil(t, c.SSL)
	assert.True(t, *c.SSL)
	assert.Equal(t, map[string]string{"pg": "8.8.0"}, scope.Dependencies)
}

func TestParseDatabaseArgumentsQuickstartSkipsPrompt(t *testing.T) {
	p := &scripted{}
	scope, err := ParseDatabaseArguments(Options{Quickstart: true}, p)
	require.NoError(t, err)
	assert.Equal(t, ClientSQLite, scope.Database.Client)
	assert.Empty(t, p.asked)
}

func TestParseDatabaseArgumentsDefaultAnswer(t *testing.T) {
	p := &scripted{answers: []any{true}}
	scope, err := ParseDatabaseArguments(Options{}, p)
	require.NoError(t, err)
	assert.Equal(t, ClientSQLite, scope.Database.Client)
	assert.Equal(t, []string{"Use the default database (sqlite) ?"}, p.asked)
}

func TestParseDatabaseArgumentsAsksConnection(t *testing.T) {
	p := &scripted{answers: []any{
		false,        // use default
		"mysql",      // client
		"shop",       // name
		"127.0.0.1",  // host
		"not-a-port", // port, asked again
		"3306",
		"root",
		"pw",
		false, // ssl
	}}

	scope, err := ParseDatabaseArguments(Options{}, p)
	require.NoError(t, err)

	c := scope.Database.Connection
	assert.Equal(t, ClientMySQL, scope.Database.Client)
	assert.Equal(t, "shop", c.Database)
	assert.Equal(t, "3306", c.Port)
	assert.Equal(t, "root", c.Username)
	assert.Equal(t, "pw", c.Password)
	require.NotNil(t, c.SSL)
	assert.False(t, *c.SSL)
	assert.Equal(t, map[string]string{"mysql2": "3.9.4"}, scope.Dependencies)
	assert.Equal(t, []string{
		"Use the default database (sqlite) ?",
		"Choose your default database client",
		"Database name:",
		"Host:",
		"Port:",
		"Port:",
		"Username:",
		"Password:",
		"Enable SSL connection:",
	}, p.asked)
}

func TestParseDatabaseArgumentsAsksSQLiteFile(t *testing.T) {
	p := &scripted{answers: []any{false, "sqlite", "data/cms.db"}}
	scope, err := ParseDatabaseArguments(Options{}, p)
	require.NoError(t, err)
	assert.Equal(t, "data/cms.db", scope.Database.Connection.Filename)
	assert.True(t, scope.Database.UseNullAsDefault)
}
