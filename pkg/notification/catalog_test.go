package notification_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifier/pkg/notification"
)

func TestLoadCatalog(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		catalog, err := notification.LoadCatalog(strings.NewReader(`
severities:
  deleted: warning
  security_alert: critical
  build_failed: error
`))
		require.NoError(t, err)

		assert.Equal(t, notification.SeverityWarning, catalog.SeverityFor("deleted"))
		assert.Equal(t, notification.SeverityCritical, catalog.SeverityFor("security_alert"))
		assert.Equal(t, notification.SeverityError, catalog.SeverityFor("build_failed"))
	})

	t.Run("unknown severity value", func(t *testing.T) {
		t.Parallel()

		_, err := notification.LoadCatalog(strings.NewReader("severities:\n  deleted: fatal\n"))
		assert.ErrorIs(t, err, notification.ErrInvalidSeverity)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()

		_, err := notification.LoadCatalog(strings.NewReader("severities: ["))
		assert.Error(t, err)
	})
}

func TestCatalog_SeverityFallback(t *testing.T) {
	t.Parallel()

	catalog := notification.DefaultCatalog()
	assert.Equal(t, notification.SeverityInfo, catalog.SeverityFor("someone_sneezed"))
}

func TestTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path      string
		eventType string
		want      string
	}{
		{"/projects/alpha", "created", "New Alpha created"},
		{"/projects/alpha", "updated", "Alpha was updated"},
		{"/projects/alpha", "deleted", "Alpha was deleted"},
		{"/projects/alpha/tasks/fix-login", "commented", "New comment on Fix Login"},
		{"/projects/alpha", "status_changed", "Status Changed on Alpha"},
	}

	for _, tt := range tests {
		t.Run(tt.eventType+" "+tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, notification.Title(tt.path, tt.eventType))
		})
	}
}

func TestContent(t *testing.T) {
	t.Parallel()

	data := map[string]any{"user_name": "Alice"}

	assert.Equal(t, "Alice created a new Alpha",
		notification.Content("/projects/alpha", "created", data))
	assert.Equal(t, `Alice commented on Alpha: "looks good"`,
		notification.Content("/projects/alpha", "commented",
			map[string]any{"user_name": "Alice", "comment": "looks good"}))
	assert.Equal(t, "Someone updated Alpha",
		notification.Content("/projects/alpha", "updated", nil),
		"missing user_name falls back to an anonymous actor")
}

func TestActionURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/app/projects/alpha/tasks/42", notification.ActionURL("/projects/alpha/tasks/42"))
}
