package config

import "testing"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MONGODB_URI", "mongodb+srv://user:<password>@cluster.mongodb.net/")
	t.Setenv("MONGODB_PASSWORD", "secret")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("KAFKA_TOPIC", "")
	t.Setenv("FRONTEND_URL", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Environment != "development" {
		t.Errorf("expected default environment development, got %s", cfg.Environment)
	}
	if cfg.KafkaTopic != "halqa.events" {
		t.Errorf("expected default kafka topic, got %s", cfg.KafkaTopic)
	}
	if cfg.FrontendURL != "http://localhost:3000" {
		t.Errorf("expected default frontend url, got %s", cfg.FrontendURL)
	}
	if !cfg.IsDevelopment() || cfg.IsProduction() {
		t.Error("expected development mode")
	}
}

func TestLoadConfigRequiresMongo(t *testing.T) {
	t.Setenv("MONGODB_URI", "")
	t.Setenv("MONGODB_PASSWORD", "secret")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing MONGODB_URI")
	}

	t.Setenv("MONGODB_URI", "mongodb+srv://cluster.mongodb.net/")
	t.Setenv("MONGODB_PASSWORD", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing MONGODB_PASSWORD")
	}
}

// Missing Supabase credentials are not an error: the auth subsystem falls
// back to its local backend, and SupabaseConfigured is how callers tell.
func TestSupabaseIsOptional(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_URL_ANON_KEY", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SupabaseConfigured() {
		t.Error("expected SupabaseConfigured to be false")
	}

	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	cfg, err = LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// One credential alone is not enough.
	if cfg.SupabaseConfigured() {
		t.Error("expected SupabaseConfigured to be false with only the URL set")
	}

	t.Setenv("SUPABASE_URL_ANON_KEY", "anon-key")
	cfg, err = LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.SupabaseConfigured() {
		t.Error("expected SupabaseConfigured to be true")
	}
}
