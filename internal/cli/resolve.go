package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/implanta/internal/domain"
)

const dateLayout = "2006-01-02"

// named is the subset of an entity resolveRef matches against.
type named struct {
	id, name string
}

// resolveRef picks one entity for input by exact id, then case-insensitive
// name, then unambiguous id prefix.
func resolveRef(what, input string, candidates []named) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%s ID is required", what)
	}

	for _, c := range candidates {
		if c.id == input {
			return c.id, nil
		}
	}

	var byName []string
	for _, c := range candidates {
		if strings.EqualFold(c.name, input) {
			byName = append(byName, c.id)
		}
	}
	if len(byName) == 1 {
		return byName[0], nil
	}
	if len(byName) > 1 {
		return "", fmt.Errorf("%s name %q is ambiguous (%d matches); use the ID", what, input, len(byName))
	}

	var matches []string
	for _, c := range candidates {
		if strings.HasPrefix(c.id, input) {
			matches = append(matches, c.id)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%s not found: %q: %w", what, input, domain.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%s ID prefix %q is ambiguous (%d matches)", what, input, len(matches))
	}
}

func resolveImplementationID(ctx context.Context, app *App, input string) (string, error) {
	impls, err := app.Implementations.List(ctx)
	if err != nil {
		return "", err
	}
	candidates := make([]named, 0, len(impls))
	for _, i := range impls {
		candidates = append(candidates, named{id: i.ID, name: i.Name})
	}
	return resolveRef("implementation", input, candidates)
}

func resolveTemplateID(ctx context.Context, app *App, input string) (string, error) {
	templates, err := app.Plans.ListTemplates(ctx, false)
	if err != nil {
		return "", err
	}
	candidates := make([]named, 0, len(templates))
	for _, t := range templates {
		candidates = append(candidates, named{id: t.ID, name: t.Name})
	}
	return resolveRef("template", input, candidates)
}

func resolveNodeID(ctx context.Context, app *App, input string) (string, error) {
	n, err := app.Checklist.ResolveNode(ctx, input)
	if err != nil {
		return "", err
	}
	return n.ID, nil
}

func resolveCommentID(ctx context.Context, app *App, nodeID, input string) (string, error) {
	comments, err := app.Checklist.Comments(ctx, nodeID)
	if err != nil {
		return "", err
	}
	candidates := make([]named, 0, len(comments))
	for _, c := range comments {
		candidates = append(candidates, named{id: c.ID})
	}
	return resolveRef("comment", input, candidates)
}

func parseDate(flag, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: expected YYYY-MM-DD", flag, value)
	}
	return t, nil
}

func parseOptionalDate(flag, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, nil
	}
	return parseDate(flag, value)
}
