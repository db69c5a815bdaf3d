package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestFileTokenStore_RoundTrip(t *testing.T) {
	store := NewFileTokenStore(filepath.Join(t.TempDir(), "token.json"))

	saved := &oauth2.Token{
		AccessToken:  "test-access-token",
		RefreshToken: "test-refresh-token",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(1 * time.Hour),
	}
	if err := store.SaveToken(saved); err != nil {
		t.Fatalf("SaveToken() returned an error: %v", err)
	}

	loaded, err := store.LoadToken()
	if err != nil {
		t.Fatalf("LoadToken() returned an error: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected a token back, got nil")
	}
	if loaded.AccessToken != saved.AccessToken {
		t.Errorf("Expected AccessToken %q, got %q", saved.AccessToken, loaded.AccessToken)
	}
	if loaded.RefreshToken != saved.RefreshToken {
		t.Errorf("Expected RefreshToken %q, got %q", saved.RefreshToken, loaded.RefreshToken)
	}
	if !loaded.Expiry.Equal(saved.Expiry) {
		t.Errorf("Expected Expiry %v, got %v", saved.Expiry, loaded.Expiry)
	}
}

func TestFileTokenStore_OwnerOnlyPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store := NewFileTokenStore(path)

	if err := store.SaveToken(&oauth2.Token{AccessToken: "test-access-token"}); err != nil {
		t.Fatalf("SaveToken() returned an error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() returned an error: %v", err)
	}
	if got := info.Mode().Perm(); got != 0600 {
		t.Errorf("Expected the token file to be mode 0600, got %04o", got)
	}
}

func TestFileTokenStore_MissingFileIsNotAnError(t *testing.T) {
	store := NewFileTokenStore(filepath.Join(t.TempDir(), "nonexistent.json"))

	token, err := store.LoadToken()
	if err != nil {
		t.Fatalf("LoadToken() returned an error for a missing file: %v", err)
	}
	if token != nil {
		t.Errorf("Expected nil for a missing cache, got %+v", token)
	}
}

func TestFileTokenStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	if err := os.WriteFile(path, []byte("not json"), 0600); err != nil {
		t.Fatalf("failed to seed corrupt file: %v", err)
	}

	if _, err := NewFileTokenStore(path).LoadToken(); err == nil {
		t.Error("Expected an error for a corrupt token file")
	}
}
