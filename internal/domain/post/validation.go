package post

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
)

// MaxJoinedTagsLength bounds the concatenation of all normalized tags of a post.
const MaxJoinedTagsLength = 50

var validate = newValidator()

type postBatch struct {
	Posts []CreatePostInput `json:"posts" validate:"min=1,max=10,unique=UploadID,dive"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// NormalizeTag turns free-form tag text into a URL-safe slug.
func NormalizeTag(tag string) string {
	return slug.Make(tag)
}

// NormalizeTags slugifies every tag, preserving order.
func NormalizeTags(tags []string) []string {
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = NormalizeTag(tag)
	}
	return out
}

// DefaultTitle derives a title from tags when none was supplied.
func DefaultTitle(tags []string) string {
	return strings.Join(tags, " ")
}

// PrepareBatch normalizes and validates a post batch. The returned inputs have
// trimmed text, slugified tags and a non-empty title.
func PrepareBatch(inputs []CreatePostInput) ([]CreatePostInput, error) {
	prepared := make([]CreatePostInput, len(inputs))
	for i, in := range inputs {
		in.UploadID = strings.TrimSpace(in.UploadID)
		in.Title = strings.TrimSpace(in.Title)
		in.Caption = strings.TrimSpace(in.Caption)
		in.Tags = NormalizeTags(in.Tags)
		prepared[i] = in
	}

	if err := validate.Struct(postBatch{Posts: prepared}); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, describeValidationError(err))
	}

	for i := range prepared {
		if joined := len(strings.Join(prepared[i].Tags, "")); joined > MaxJoinedTagsLength {
			return nil, fmt.Errorf("%w: posts[%d].tags: combined length %d exceeds %d", ErrInvalidInput, i, joined, MaxJoinedTagsLength)
		}
		if prepared[i].Title == "" {
			prepared[i].Title = DefaultTitle(prepared[i].Tags)
		}
	}
	return prepared, nil
}

func describeValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return err.Error()
	}
	fe := validationErrs[0]
	field := fe.Namespace()
	if idx := strings.Index(field, "."); idx >= 0 {
		field = field[idx+1:]
	}
	if fe.Param() != "" {
		return fmt.Sprintf("%s: failed %s=%s", field, fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s: failed %s", field, fe.Tag())
}
