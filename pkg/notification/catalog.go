package notification

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog maps event types to their default severity. Unknown event types
// fall back to SeverityInfo.
type Catalog struct {
	severities map[string]Severity
}

// DefaultCatalog returns the built-in event-type catalog.
func DefaultCatalog() *Catalog {
	return &Catalog{severities: map[string]Severity{
		"created":        SeverityInfo,
		"updated":        SeverityInfo,
		"deleted":        SeverityWarning,
		"commented":      SeverityInfo,
		"status_changed": SeverityInfo,
		"assigned":       SeverityInfo,
	}}
}

// catalogFile is the YAML layout consumed by LoadCatalog:
//
//	severities:
//	  created: info
//	  deleted: warning
type catalogFile struct {
	Severities map[string]string `yaml:"severities"`
}

// LoadCatalog reads a catalog from YAML, validating every severity value.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var file catalogFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	severities := make(map[string]Severity, len(file.Severities))
	for eventType, raw := range file.Severities {
		sev := Severity(raw)
		if !sev.Valid() {
			return nil, fmt.Errorf("%w: %q for event type %q", ErrInvalidSeverity, raw, eventType)
		}
		severities[eventType] = sev
	}
	return &Catalog{severities: severities}, nil
}

// SeverityFor returns the severity configured for an event type, or
// SeverityInfo if the type is unknown.
func (c *Catalog) SeverityFor(eventType string) Severity {
	if sev, ok := c.severities[eventType]; ok {
		return sev
	}
	return SeverityInfo
}

// Title renders a human-readable notification title for an event.
func Title(path, eventType string) string {
	object := displayName(path)
	switch eventType {
	case "created":
		return fmt.Sprintf("New %s created", object)
	case "updated":
		return fmt.Sprintf("%s was updated", object)
	case "deleted":
		return fmt.Sprintf("%s was deleted", object)
	case "commented":
		return fmt.Sprintf("New comment on %s", object)
	default:
		return fmt.Sprintf("%s on %s", titleCase(strings.ReplaceAll(eventType, "_", " ")), object)
	}
}

// Content renders the notification body from the event payload. The payload
// keys mirror what producers publish; user_name and comment are optional.
func Content(path, eventType string, data map[string]any) string {
	object := displayName(path)
	actor := "Someone"
	if name, ok := data["user_name"].(string); ok && name != "" {
		actor = name
	}

	switch eventType {
	case "created":
		return fmt.Sprintf("%s created a new %s", actor, object)
	case "updated":
		return fmt.Sprintf("%s updated %s", actor, object)
	case "deleted":
		return fmt.Sprintf("%s deleted %s", actor, object)
	case "commented":
		comment, _ := data["comment"].(string)
		return fmt.Sprintf("%s commented on %s: %q", actor, object, comment)
	default:
		return fmt.Sprintf("%s performed %s on %s", actor, strings.ReplaceAll(eventType, "_", " "), object)
	}
}

// ActionURL maps an object path to its frontend route.
func ActionURL(path string) string {
	return "/app" + path
}

// displayName extracts the last path segment and formats it for display.
func displayName(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	name := segments[len(segments)-1]
	if name == "" {
		name = "item"
	}
	name = strings.ReplaceAll(name, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")
	return titleCase(name)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
