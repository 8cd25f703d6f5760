// Package gee talks to the Earth Engine REST API.
package gee

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var ErrNoCredentials = errors.New("no Earth Engine credentials found")

// OAuth scopes requested for Earth Engine.
const (
	EarthEngineScope   = "https://www.googleapis.com/auth/earthengine"
	CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
)

var scopes = []string{EarthEngineScope, CloudPlatformScope}

// Session is an authenticated handle on an Earth Engine cloud project. Create
// one per run and hand it to NewClient.
type Session struct {
	Project    string
	httpClient *http.Client
}

// NewSession loads credentials from credentialsFile, or from the application
// default credentials when it is empty.
func NewSession(ctx context.Context, project string, credentialsFile string) (*Session, error) {
	if project == "" {
		return nil, errors.New("an Earth Engine cloud project is required")
	}

	var creds *google.Credentials
	if credentialsFile != "" {
		data, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoCredentials, err)
		}
		creds, err = google.CredentialsFromJSON(ctx, data, scopes...)
		if err != nil {
			return nil, fmt.Errorf("NewSession.CredentialsFromJSON: %w", err)
		}
	} else {
		var err error
		creds, err = google.FindDefaultCredentials(ctx, scopes...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoCredentials, err)
		}
	}
	logrus.WithField("project", project).Debug("Earth Engine session established")

	return &Session{
		Project:    project,
		httpClient: oauth2.NewClient(ctx, creds.TokenSource),
	}, nil
}

// NewSessionWithClient wraps an already authorised HTTP client.
func NewSessionWithClient(project string, client *http.Client) *Session {
	return &Session{Project: project, httpClient: client}
}

func (s *Session) HTTPClient() *http.Client {
	return s.httpClient
}
