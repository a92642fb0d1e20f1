package locale

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/seu-repo/armvoice/internal/domain"
)

func newCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog("en-US", "", zap.NewNop())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return c
}

func TestRender_Interpolates(t *testing.T) {
	c := newCatalog(t)

	text, err := c.Render("en-US", domain.MessageArmMove, map[string]interface{}{
		domain.ParamDegree:     "elbow",
		domain.ParamFinalAngle: float64(-45),
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if text != "Moving the elbow by -45 degrees." {
		t.Errorf("unexpected text %q", text)
	}
}

func TestRender_EveryKeyInEveryEmbeddedLocale(t *testing.T) {
	c := newCatalog(t)

	for _, locale := range []string{"en-US", "pt-BR"} {
		for _, key := range domain.MessageKeys {
			text, err := c.Render(locale, key, nil)
			if err != nil || text == "" {
				t.Errorf("%s %s: expected text, got %q (%v)", locale, key, text, err)
			}
		}
	}
}

func TestRender_LocaleFallback(t *testing.T) {
	c := newCatalog(t)

	pt, _ := c.Render("pt-PT", domain.MessageGripOpen, nil)
	if pt != "Abrindo a garra." {
		t.Errorf("expected language fallback to pt-BR, got %q", pt)
	}

	def, _ := c.Render("fr-FR", domain.MessageGripOpen, nil)
	if def != "Opening the grip." {
		t.Errorf("expected default locale, got %q", def)
	}
}

func TestRender_UnknownKey(t *testing.T) {
	c := newCatalog(t)

	if _, err := c.Render("en-US", "ARM.DANCE", nil); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("expected ErrUnknownKey, got %v", err)
	}
}

func TestNewCatalog_DirectoryOverride(t *testing.T) {
	dir := t.TempDir()
	body := "GRIP.OPEN: \"Grip open, captain.\"\n"
	if err := os.WriteFile(filepath.Join(dir, "en-US.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	c, err := NewCatalog("en-US", dir, zap.NewNop())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	text, _ := c.Render("en-US", domain.MessageGripOpen, nil)
	if text != "Grip open, captain." {
		t.Errorf("expected override text, got %q", text)
	}
}

func TestNewCatalog_UnknownDefault(t *testing.T) {
	if _, err := NewCatalog("de-DE", "", zap.NewNop()); err == nil {
		t.Error("expected error for missing default locale")
	}
}

func TestNewCatalog_OverrideKeepsOtherKeys(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "en-US.yaml"), []byte("GRIP.OPEN: \"Open!\"\n"), 0o644)

	c, err := NewCatalog("en-US", dir, zap.NewNop())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if text, err := c.Render("en-US", domain.MessageGripClose, nil); err != nil || text != "Closing the grip." {
		t.Errorf("expected embedded text to survive, got %q (%v)", text, err)
	}
}

func TestRender_LanguageFallbackIsStable(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "pt-PT.yaml"), []byte("GRIP.OPEN: \"A abrir a pinça.\"\n"), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	c, err := NewCatalog("en-US", dir, zap.NewNop())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	for i := 0; i < 50; i++ {
		if text, _ := c.Render("pt-AO", domain.MessageGripOpen, nil); text != "Abrindo a garra." {
			t.Fatalf("expected pt-BR to win the pt fallback, got %q", text)
		}
	}
	if got := c.Locales(); len(got) != 3 || got[0] != "en-US" || got[1] != "pt-BR" || got[2] != "pt-PT" {
		t.Errorf("unexpected locales %v", got)
	}
}
