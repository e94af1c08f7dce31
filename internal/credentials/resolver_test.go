package credentials

import (
	"testing"

	"github.com/bjpl/describe-it-sub001/internal/models"

	"github.com/google/go-cmp/cmp"
)

const validOpenAIKey = "sk-abc123def456ghi789jkl"
const validPexelsKey = "pexelskey1234567890abcdefghij99"

func TestResolvePriorityOrder(t *testing.T) {
	tests := []struct {
		name       string
		override   string
		settings   map[string]string
		env        string
		wantValue  string
		wantSource models.CredentialSource
	}{
		{
			name:       "explicit override wins over all",
			override:   "sk-override1234567890abc",
			settings:   map[string]string{"openai": validOpenAIKey},
			env:        "sk-envkey1234567890abcde",
			wantValue:  "sk-override1234567890abc",
			wantSource: models.SourceExplicit,
		},
		{
			name:       "user settings win over environment",
			settings:   map[string]string{"openai": validOpenAIKey},
			env:        "sk-envkey1234567890abcde",
			wantValue:  validOpenAIKey,
			wantSource: models.SourceUserSettings,
		},
		{
			name:       "environment as last resort",
			settings:   map[string]string{},
			env:        "sk-envkey1234567890abcde",
			wantValue:  "sk-envkey1234567890abcde",
			wantSource: models.SourceEnvironment,
		},
		{
			name:       "whitespace settings value falls through to environment",
			settings:   map[string]string{"openai": "   "},
			env:        "sk-envkey1234567890abcde",
			wantValue:  "sk-envkey1234567890abcde",
			wantSource: models.SourceEnvironment,
		},
		{
			name:       "no source at all",
			settings:   map[string]string{},
			wantValue:  "",
			wantSource: models.SourceNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OPENAI_API_KEY", tt.env)

			resolver := NewResolver(NewStaticSettings(tt.settings))
			defer resolver.Close()
			if tt.override != "" {
				resolver.SetOverride("openai", tt.override)
			}

			record := resolver.Resolve("openai")
			if record.Value != tt.wantValue {
				t.Errorf("Resolve value = %q, want %q", record.Value, tt.wantValue)
			}
			if record.Source != tt.wantSource {
				t.Errorf("Resolve source = %q, want %q", record.Source, tt.wantSource)
			}
			if tt.wantSource == models.SourceNone && record.IsValid {
				t.Error("record with no source must not be valid")
			}
		})
	}
}

func TestResolveMalformedEnvironmentCredential(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "invalid-key-without-prefix")

	resolver := NewResolver(nil)
	record := resolver.GetConfig("openai")

	if record.Source != models.SourceEnvironment {
		t.Errorf("source = %q, want environment", record.Source)
	}
	if record.IsValid {
		t.Error("malformed credential must report IsValid=false")
	}
}

func TestGetConfigReturnsCachedResolution(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", validOpenAIKey)

	resolver := NewResolver(nil)
	first := resolver.GetConfig("openai")
	second := resolver.GetConfig("openai")

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("GetConfig not stable between calls (-first +second):\n%s", diff)
	}
	if !first.IsValid || first.Source != models.SourceEnvironment {
		t.Errorf("unexpected record: %+v", first)
	}
}

func TestGetConfigUnknownServicePanics(t *testing.T) {
	resolver := NewResolver(nil)

	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown service id")
		}
	}()
	resolver.GetConfig("no-such-service")
}

func TestSubscribeNotifiesOnlyChangedServices(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("PEXELS_API_KEY", "")

	settings := NewStaticSettings(map[string]string{"pexels": validPexelsKey})
	resolver := NewResolver(settings)
	defer resolver.Close()

	var updates []map[string]string
	unsubscribe := resolver.Subscribe(func(changed map[string]string) {
		updates = append(updates, changed)
	})
	defer unsubscribe()

	// Change only openai; pexels resolves to the same value as before.
	settings.Set("openai", validOpenAIKey)

	if len(updates) != 1 {
		t.Fatalf("listener invoked %d times, want 1", len(updates))
	}
	want := map[string]string{"openai": validOpenAIKey}
	if diff := cmp.Diff(want, updates[0]); diff != "" {
		t.Errorf("changed map mismatch (-want +got):\n%s", diff)
	}

	// Re-setting the identical value must not notify.
	settings.Set("openai", validOpenAIKey)
	if len(updates) != 1 {
		t.Errorf("listener invoked %d times after no-op change, want 1", len(updates))
	}
}

func TestSubscribeUnsubscribeStopsNotifications(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	settings := NewStaticSettings(map[string]string{})
	resolver := NewResolver(settings)
	defer resolver.Close()

	calls := 0
	unsubscribe := resolver.Subscribe(func(map[string]string) { calls++ })
	unsubscribe()

	settings.Set("openai", validOpenAIKey)
	if calls != 0 {
		t.Errorf("unsubscribed listener invoked %d times", calls)
	}
}

func TestPanickingListenerDoesNotBlockOthers(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	settings := NewStaticSettings(map[string]string{})
	resolver := NewResolver(settings)
	defer resolver.Close()

	secondCalled := false
	resolver.Subscribe(func(map[string]string) { panic("listener failure") })
	resolver.Subscribe(func(map[string]string) { secondCalled = true })

	settings.Set("openai", validOpenAIKey)

	if !secondCalled {
		t.Error("listener after panicking one was not invoked")
	}

	// Resolver state must survive the panic.
	record := resolver.GetConfig("openai")
	if record.Value != validOpenAIKey {
		t.Errorf("resolver state corrupted after listener panic: %+v", record)
	}
}

func TestRefreshPicksUpEnvironmentChange(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	resolver := NewResolver(nil)

	var updates []map[string]string
	resolver.Subscribe(func(changed map[string]string) {
		updates = append(updates, changed)
	})

	t.Setenv("OPENAI_API_KEY", validOpenAIKey)
	resolver.Refresh()

	if len(updates) != 1 {
		t.Fatalf("listener invoked %d times, want 1", len(updates))
	}
	if updates[0]["openai"] != validOpenAIKey {
		t.Errorf("refresh update = %v", updates[0])
	}

	// A second refresh with nothing changed stays silent.
	resolver.Refresh()
	if len(updates) != 1 {
		t.Errorf("refresh with no changes notified listeners: %d updates", len(updates))
	}
}

func TestValidateIsPure(t *testing.T) {
	resolver := NewResolver(nil)

	before := resolver.GetConfig("openai")
	resolver.Validate("openai", validOpenAIKey)
	after := resolver.GetConfig("openai")

	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("Validate mutated resolver state:\n%s", diff)
	}
}
