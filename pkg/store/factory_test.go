package store

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"file ok", Config{Type: BackendFile, FilePath: "data"}, false},
		{"file missing path", Config{Type: BackendFile}, true},
		{"sqlite ok", Config{Type: BackendSQLite, SQLitePath: "x.db"}, false},
		{"mongodb missing url", Config{Type: BackendMongoDB}, true},
		{"mongodb ok", Config{Type: BackendMongoDB, MongoURL: "mongodb://localhost"}, false},
		{"postgres missing url", Config{Type: BackendPostgres}, true},
		{"unknown backend", Config{Type: "oracle"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr && err == nil {
				t.Error("Expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "")
	t.Setenv("DATABASE_FILE_PATH", "")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("Failed to read default config: %v", err)
	}
	if cfg.Type != BackendFile {
		t.Errorf("Expected default backend file, got %s", cfg.Type)
	}
	if cfg.FilePath != "data" {
		t.Errorf("Expected default file path data, got %s", cfg.FilePath)
	}

	t.Setenv("DATABASE_TYPE", "postgres")
	if _, err := ConfigFromEnv(); err == nil {
		t.Error("Expected missing POSTGRES_URL to be a startup error")
	}
}

func TestFactoryUnsupportedBackend(t *testing.T) {
	if _, err := NewFactory(Config{Type: "oracle"}); !errors.Is(err, ErrUnsupportedBackend) {
		t.Errorf("Expected unsupported-backend error, got %v", err)
	}
}

func TestFactoryStubBackends(t *testing.T) {
	for _, cfg := range []Config{
		{Type: BackendMongoDB, MongoURL: "mongodb://localhost"},
		{Type: BackendPostgres, PostgresURL: "postgres://localhost"},
	} {
		f, err := NewFactory(cfg)
		if err != nil {
			t.Fatalf("Stub backend must be accepted at construction: %v", err)
		}
		if _, err := f.Loans(); !errors.Is(err, ErrBackendUnavailable) {
			t.Errorf("Backend %s: expected not-available error, got %v", cfg.Type, err)
		}
	}
}

func TestFactoryConstructsAllRepositories(t *testing.T) {
	f, err := NewFactory(Config{Type: BackendFile, FilePath: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to construct factory: %v", err)
	}

	if _, err := f.Projects(); err != nil {
		t.Errorf("Projects: %v", err)
	}
	if _, err := f.Users(); err != nil {
		t.Errorf("Users: %v", err)
	}
	if _, err := f.Documents(); err != nil {
		t.Errorf("Documents: %v", err)
	}
	if _, err := f.Loans(); err != nil {
		t.Errorf("Loans: %v", err)
	}
	if _, err := f.Investors(); err != nil {
		t.Errorf("Investors: %v", err)
	}
	if _, err := f.Investments(); err != nil {
		t.Errorf("Investments: %v", err)
	}
	if _, err := f.Transactions(); err != nil {
		t.Errorf("Transactions: %v", err)
	}
}

func TestFactoryReusesStores(t *testing.T) {
	f, err := NewFactory(Config{Type: BackendFile, FilePath: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to construct factory: %v", err)
	}
	a, _ := f.Loans()
	b, _ := f.Loans()
	if a != b {
		t.Error("Expected the same store instance per entity kind")
	}
}

func TestDefaultFactoryFirstInitWins(t *testing.T) {
	resetDefault()
	t.Cleanup(resetDefault)

	if _, err := Instance(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("Expected not-initialized error before Init, got %v", err)
	}

	firstDir := t.TempDir()
	first, err := Init(Config{Type: BackendFile, FilePath: firstDir})
	if err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	second, err := Init(Config{Type: BackendFile, FilePath: t.TempDir()})
	if err != nil {
		t.Fatalf("Repeat Init must be a no-op: %v", err)
	}
	if second != first {
		t.Error("Expected repeat Init to keep the existing instance")
	}
	if second.Config().FilePath != firstDir {
		t.Error("Expected stores bound to the first configuration")
	}

	got, err := Instance()
	if err != nil {
		t.Fatalf("Failed to get instance: %v", err)
	}
	if got != first {
		t.Error("Expected Instance to return the initialized factory")
	}
}
