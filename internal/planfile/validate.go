package planfile

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/implanta/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a definition before anything is written. It returns every
// problem found, joined, as a domain.ValidationError chain.
func Validate(d *Definition) error {
	var errs []error
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, domain.NewValidationError(fe.Namespace(), fmt.Sprintf("failed %q rule", fe.Tag())))
			}
		} else {
			errs = append(errs, err)
		}
	}
	errs = append(errs, validateNodes("nodes", d.Nodes, nil)...)
	return errors.Join(errs...)
}

func validateNodes(path string, nodes []NodeDef, parent *domain.NodeKind) []error {
	var errs []error
	for i := range nodes {
		n := &nodes[i]
		at := fmt.Sprintf("%s[%d]", path, i)

		kind, err := domain.ParseNodeKind(n.Kind)
		if err != nil {
			errs = append(errs, domain.NewValidationError(at+".kind", fmt.Sprintf("unknown node kind %q", n.Kind)))
			continue
		}
		proto := kind.Prototype()
		switch {
		case parent == nil && proto.Level() != 0:
			errs = append(errs, domain.NewValidationError(at+".kind", fmt.Sprintf("%s cannot be a root node", kind.Live())))
		case parent != nil && !parent.CanParent(proto):
			errs = append(errs, domain.NewValidationError(at+".kind",
				fmt.Sprintf("%s cannot be nested under %s", kind.Live(), parent.Live())))
		}

		if _, err := domain.ParseTag(n.Tag); err != nil {
			errs = append(errs, domain.NewValidationError(at+".tag", fmt.Sprintf("unknown tag %q", n.Tag)))
		}
		if n.DayOffset == nil && n.BusinessDaysOnly {
			errs = append(errs, domain.NewValidationError(at+".business_days_only", "requires day_offset"))
		}

		errs = append(errs, validateNodes(at+".children", n.Children, &proto)...)
	}
	return errs
}
