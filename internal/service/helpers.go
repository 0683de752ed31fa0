package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/implanta/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// storedNow is the current UTC time at the precision timestamps are
// persisted with, so returned entities equal what a later read yields.
func storedNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// validateInput runs struct tags on in and reports the first failure as a
// domain.ValidationError.
func validateInput(in any) error {
	return asValidationError(validate.Struct(in))
}

func requireActor(actor string) error {
	if strings.TrimSpace(actor) == "" {
		return domain.NewValidationError("actor", "is required")
	}
	return nil
}

func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return domain.NewValidationError(strings.ToLower(fe.Field()), fmt.Sprintf("failed %q rule", fe.Tag()))
	}
	return domain.NewValidationError("", err.Error())
}

// dateOnly truncates t to midnight UTC of its calendar day.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return formatDate(a) == formatDate(b)
}

// requireLive rejects template prototypes for operations that only make
// sense on an implementation's checklist.
func requireLive(n *domain.ChecklistNode) error {
	if n.ImplantacaoID == nil {
		return domain.NewValidationError("node_id", "template nodes are not tracked; apply the template first")
	}
	return nil
}
