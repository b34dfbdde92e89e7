package model

import (
	"strings"
	"testing"

	"storefront/internal/config"
	"storefront/internal/model/memory"
)

func TestInitRepositoryMemory(t *testing.T) {
	for _, kind := range []string{"", "memory", " Memory "} {
		repo, err := InitRepository(&config.Config{DBType: kind})
		if err != nil {
			t.Fatalf("InitRepository(%q): %v", kind, err)
		}
		if _, ok := repo.(*memory.Repository); !ok {
			t.Fatalf("InitRepository(%q) = %T, want memory repository", kind, repo)
		}
	}
}

func TestInitRepositoryUnsupported(t *testing.T) {
	if _, err := InitRepository(&config.Config{DBType: "oracle"}); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("expected unsupported database error, got %v", err)
	}
}

func TestDSNBuilders(t *testing.T) {
	cfg := &config.Config{DBUser: "u", DBPassword: "p", DBAddr: "db", DBPort: "5432", DBName: "shop"}
	if got := postgresDSN(cfg); got != "host=db port=5432 user=u password=p dbname=shop sslmode=disable TimeZone=UTC" {
		t.Fatalf("postgresDSN = %q", got)
	}
	if got := mysqlDSN(cfg); !strings.HasPrefix(got, "u:p@tcp(db:5432)/shop?") {
		t.Fatalf("mysqlDSN = %q", got)
	}
	cfg.DSNURL = "custom"
	if mysqlDSN(cfg) != "custom" || postgresDSN(cfg) != "custom" {
		t.Fatalf("DSN_URL must take precedence")
	}
}
