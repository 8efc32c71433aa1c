package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidArgs = errors.New("invalid arguments")

var validate = validator.New()

// arg decodes positional argument i into dst. Missing trailing arguments and
// JSON null leave dst untouched.
func arg(args []json.RawMessage, i int, dst any) error {
	if i >= len(args) || len(args[i]) == 0 || string(args[i]) == "null" {
		return nil
	}

	if err := json.Unmarshal(args[i], dst); err != nil {
		return fmt.Errorf("%w: argument %d: %v", ErrInvalidArgs, i, err)
	}

	return nil
}

func check(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}

	msgs := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		name := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("the %s field is required", name))
		case "min", "gte":
			msgs = append(msgs, fmt.Sprintf("the %s must be at least %s", name, fe.Param()))
		case "max", "lte":
			msgs = append(msgs, fmt.Sprintf("the %s must be at most %s", name, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("the %s field is invalid", name))
		}
	}

	return fmt.Errorf("%w: %s", ErrInvalidArgs, strings.Join(msgs, "; "))
}

type pathArgs struct {
	Path string `validate:"required"`
}

type renameArgs struct {
	OldPath string `validate:"required"`
	NewPath string `validate:"required"`
}

type sessionArgs struct {
	SessionID string `validate:"required"`
}

type commandArgs struct {
	SessionID string `validate:"required"`
	Text      string
}

type historyArgs struct {
	Limit int `validate:"gte=0,lte=1000"`
}

type systemInfoOptions struct {
	Refresh bool `json:"refresh"`
}

func decodePath(args []json.RawMessage) (pathArgs, error) {
	var a pathArgs
	if err := arg(args, 0, &a.Path); err != nil {
		return a, err
	}
	return a, check(a)
}

func decodeSession(args []json.RawMessage) (sessionArgs, error) {
	var a sessionArgs
	if err := arg(args, 0, &a.SessionID); err != nil {
		return a, err
	}
	return a, check(a)
}
