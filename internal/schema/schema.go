// Package schema holds the declarative form-validation schemas. Validation
// is pure and total: no network, no storage, always terminates. The
// permitted role sets are injected, never hardcoded, because deployments
// have historically differed on which roles a form may offer.
package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/suteetoe/orgdesk/internal/model"
	"github.com/suteetoe/orgdesk/pkg/config"
)

// FieldError is a single field-level violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is the structured rejection a schema produces.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// LoginEmail is the email login form.
type LoginEmail struct {
	Email string `json:"email" validate:"required,email"`
}

// LoginPhone is the phone login form. Only length is checked; the source
// of truth for number format is the SMS provider.
type LoginPhone struct {
	Phone string `json:"phone" validate:"required,min=10"`
}

// Invite is the member-invite form. Its role set is broader than the
// membership role set on some deployments.
type Invite struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,invite_role"`
}

// Member is the direct member form.
type Member struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Role  string `json:"role" validate:"required,member_role"`
}

// Schemas validates the form types against the configured role sets.
type Schemas struct {
	validate    *validator.Validate
	inviteRoles model.RoleSet
	memberRoles model.RoleSet
}

// New builds the schema validator for the given role sets.
func New(inviteRoles, memberRoles model.RoleSet) (*Schemas, error) {
	s := &Schemas{
		validate:    validator.New(),
		inviteRoles: inviteRoles,
		memberRoles: memberRoles,
	}

	// Report violations under the json field name
	s.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := s.validate.RegisterValidation("invite_role", roleValidation(inviteRoles)); err != nil {
		return nil, err
	}
	if err := s.validate.RegisterValidation("member_role", roleValidation(memberRoles)); err != nil {
		return nil, err
	}

	return s, nil
}

// FromConfig builds the schemas from the configured role lists, falling
// back to the default sets where the deployment configures none.
func FromConfig(cfg *config.Config) (*Schemas, error) {
	invite := model.DefaultInviteRoles()
	if len(cfg.Roles.Invite) > 0 {
		invite = model.RoleSet(cfg.Roles.Invite)
	}
	member := model.DefaultMemberRoles()
	if len(cfg.Roles.Member) > 0 {
		member = model.RoleSet(cfg.Roles.Member)
	}
	return New(invite, member)
}

func roleValidation(roles model.RoleSet) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return roles.Contains(fl.Field().String())
	}
}

// ValidateLoginEmail checks the email login form.
func (s *Schemas) ValidateLoginEmail(form LoginEmail) error {
	return s.check(form)
}

// ValidateLoginPhone checks the phone login form.
func (s *Schemas) ValidateLoginPhone(form LoginPhone) error {
	return s.check(form)
}

// ValidateInvite checks an invite payload against the invite role set.
func (s *Schemas) ValidateInvite(form Invite) error {
	return s.check(form)
}

// ValidateMember checks a member payload against the membership role set.
func (s *Schemas) ValidateMember(form Member) error {
	return s.check(form)
}

func (s *Schemas) check(form any) error {
	err := s.validate.Struct(form)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Message: s.message(fe),
		})
	}
	return out
}

func (s *Schemas) message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters long", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters long", fe.Param())
	case "invite_role":
		return fmt.Sprintf("must be one of %s", s.inviteRoles)
	case "member_role":
		return fmt.Sprintf("must be one of %s", s.memberRoles)
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
