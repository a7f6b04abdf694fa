package token

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// DeviceCode is shown to the user while the device flow waits for approval.
type DeviceCode struct {
	VerificationURI string
	UserCode        string
}

// Login runs the OAuth2 device authorization flow against the endpoints in
// the remote CLI configuration and saves the resulting ID token. notify is
// called once with the code the user must confirm in a browser.
func (s *Service) Login(ctx context.Context, hc *http.Client, notify func(DeviceCode)) error {
	cfg, err := s.api.Config(ctx)
	if err != nil {
		return fmt.Errorf("fetching CLI config: %w", err)
	}
	if cfg.ClientID == "" || cfg.DeviceCodeAuthURL == "" || cfg.TokenURL == "" {
		return errors.New("CLI config does not describe a device login flow")
	}

	if hc != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, hc)
	}

	oc := &oauth2.Config{
		ClientID: cfg.ClientID,
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: cfg.DeviceCodeAuthURL,
			TokenURL:      cfg.TokenURL,
			AuthStyle:     oauth2.AuthStyleInParams,
		},
		Scopes: strings.Fields(cfg.Scope),
	}

	var params []oauth2.AuthCodeOption
	if cfg.Audience != "" {
		params = append(params, oauth2.SetAuthURLParam("audience", cfg.Audience))
	}

	da, err := oc.DeviceAuth(ctx, params...)
	if err != nil {
		return fmt.Errorf("requesting device code: %w", err)
	}

	uri := da.VerificationURIComplete
	if uri == "" {
		uri = da.VerificationURI
	}
	if notify != nil {
		notify(DeviceCode{VerificationURI: uri, UserCode: da.UserCode})
	}

	tok, err := oc.DeviceAccessToken(ctx, da)
	if err != nil {
		return fmt.Errorf("waiting for device approval: %w", err)
	}

	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		s.logger.Debug("token response has no id_token, using access token")
		idToken = tok.AccessToken
	}

	if !s.IsTokenValid(ctx, idToken) {
		return errors.New("the token returned by the login flow is not valid")
	}

	s.SaveToken(idToken)
	s.logger.Info("login complete", zap.String("client_id", cfg.ClientID))
	return nil
}
