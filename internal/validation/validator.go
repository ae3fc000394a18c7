package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/community-blog-api/internal/apperr"
	"github.com/community-blog-api/internal/models"
	"github.com/google/uuid"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	nameRegex  = regexp.MustCompile(`^[\p{L}\p{N}_][\p{L}\p{N}_.\-]{1,63}$`)
)

const (
	maxTitleLength    = 255
	maxAdditionLength = 512
	maxTagLength      = 64
	maxAnswerLength   = 512
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Validator provides validation methods
type Validator struct {
	maxTags int
}

// NewValidator creates a new validator instance
func NewValidator(maxTags int) *Validator {
	if maxTags <= 0 {
		maxTags = 20
	}
	return &Validator{maxTags: maxTags}
}

// ToError converts collected validation errors into a domain error, nil when empty
func ToError(errs []ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	return apperr.Validation(errs[0].Field, errs[0].Message)
}

// ValidateUser validates a registration request
func (v *Validator) ValidateUser(req *models.CreateUserRequest) []ValidationError {
	var errors []ValidationError

	if req.Name == "" {
		errors = append(errors, ValidationError{Field: "name", Message: "name is required"})
	} else if !nameRegex.MatchString(req.Name) {
		errors = append(errors, ValidationError{Field: "name", Message: "name must be 2-64 letters, digits, '_', '.' or '-'", Value: req.Name})
	}

	if req.Email == "" {
		errors = append(errors, ValidationError{Field: "email", Message: "email is required"})
	} else if !emailRegex.MatchString(req.Email) {
		errors = append(errors, ValidationError{Field: "email", Message: "invalid email format", Value: req.Email})
	}

	return errors
}

// ValidateBlog validates a blog creation request
func (v *Validator) ValidateBlog(req *models.CreateBlogRequest) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(req.Name) == "" {
		errors = append(errors, ValidationError{Field: "name", Message: "name is required"})
	} else if utf8.RuneCountInString(req.Name) > maxTitleLength {
		errors = append(errors, ValidationError{Field: "name", Message: fmt.Sprintf("name exceeds %d characters", maxTitleLength)})
	}

	return errors
}

// ValidatePost validates a Post, Link or Translate request
func (v *Validator) ValidatePost(req *models.CreatePostRequest) []ValidationError {
	var errors []ValidationError

	if !req.Type.Valid() || req.Type.IsPoll() {
		errors = append(errors, ValidationError{Field: "type", Message: "type must be post, link or translate", Value: req.Type})
	}
	errors = append(errors, v.validateTitle(req.Title)...)

	if strings.TrimSpace(req.Text) == "" {
		errors = append(errors, ValidationError{Field: "text", Message: "text is required"})
	}
	errors = append(errors, v.validateAddition(req.Type, req.Addition)...)
	errors = append(errors, v.validateBlogID(req.BlogID)...)

	if _, err := v.ParseTags(req.Tags); err != nil {
		errors = append(errors, ValidationError{Field: "tags", Message: err.Error()})
	}

	return errors
}

// ValidatePoll validates an Answer or MultipleAnswer request and returns the parsed answers
func (v *Validator) ValidatePoll(req *models.CreatePollRequest) ([]string, []ValidationError) {
	var errors []ValidationError

	if !req.Type.IsPoll() {
		errors = append(errors, ValidationError{Field: "type", Message: "type must be answer or multiple_answer", Value: req.Type})
	}
	errors = append(errors, v.validateTitle(req.Title)...)
	errors = append(errors, v.validateBlogID(req.BlogID)...)

	answers, err := ParseAnswers(req.Answers)
	if err != nil {
		errors = append(errors, ValidationError{Field: "answers", Message: err.Error()})
	}

	if _, err := v.ParseTags(req.Tags); err != nil {
		errors = append(errors, ValidationError{Field: "tags", Message: err.Error()})
	}

	return answers, errors
}

// ValidateEdit validates an edit of a post of the given type
func (v *Validator) ValidateEdit(postType models.PostType, req *models.EditPostRequest) []ValidationError {
	var errors []ValidationError

	if postType.IsPoll() {
		return append(errors, ValidationError{Field: "type", Message: "polls cannot be edited", Value: postType})
	}
	errors = append(errors, v.validateTitle(req.Title)...)

	if strings.TrimSpace(req.Text) == "" {
		errors = append(errors, ValidationError{Field: "text", Message: "text is required"})
	}
	errors = append(errors, v.validateAddition(postType, req.Addition)...)
	errors = append(errors, v.validateBlogID(req.BlogID)...)

	if _, err := v.ParseTags(req.Tags); err != nil {
		errors = append(errors, ValidationError{Field: "tags", Message: err.Error()})
	}

	return errors
}

// ValidateDraft validates a draft save. A new draft needs a type, and polls
// cannot be drafted. Title and addition may be empty until publishing.
func (v *Validator) ValidateDraft(req *models.SaveDraftRequest, creating bool) []ValidationError {
	var errors []ValidationError

	switch {
	case req.Type == nil:
		if creating {
			errors = append(errors, ValidationError{Field: "type", Message: "type is required"})
		}
	case !req.Type.Valid() || req.Type.IsPoll():
		errors = append(errors, ValidationError{Field: "type", Message: "type must be post, link or translate", Value: *req.Type})
	}

	if utf8.RuneCountInString(strings.TrimSpace(req.Title)) > maxTitleLength {
		errors = append(errors, ValidationError{Field: "title", Message: fmt.Sprintf("title exceeds %d characters", maxTitleLength)})
	}
	if utf8.RuneCountInString(req.Addition) > maxAdditionLength {
		errors = append(errors, ValidationError{Field: "addition", Message: fmt.Sprintf("addition exceeds %d characters", maxAdditionLength)})
	}
	errors = append(errors, v.validateBlogID(req.BlogID)...)

	if _, err := v.ParseTags(req.Tags); err != nil {
		errors = append(errors, ValidationError{Field: "tags", Message: err.Error()})
	}

	return errors
}

// ValidateComment validates a reply
func (v *Validator) ValidateComment(req *models.CreateCommentRequest) []ValidationError {
	var errors []ValidationError

	text := strings.TrimSpace(req.Text)
	if text == "" {
		errors = append(errors, ValidationError{Field: "text", Message: "text is required"})
	} else if n := utf8.RuneCountInString(text); n > models.MaxCommentLength {
		errors = append(errors, ValidationError{
			Field:   "text",
			Message: fmt.Sprintf("text exceeds maximum of %d characters (has %d)", models.MaxCommentLength, n),
		})
	}

	if req.ParentID != "" && !IsValidUUID(req.ParentID) {
		errors = append(errors, ValidationError{Field: "parent_id", Message: "invalid UUID format", Value: req.ParentID})
	}

	return errors
}

// ValidateMessage validates a private message
func (v *Validator) ValidateMessage(req *models.SendMessageRequest) []ValidationError {
	var errors []ValidationError

	if req.RecipientID == "" {
		errors = append(errors, ValidationError{Field: "recipient_id", Message: "recipient_id is required"})
	} else if !IsValidUUID(req.RecipientID) {
		errors = append(errors, ValidationError{Field: "recipient_id", Message: "invalid UUID format", Value: req.RecipientID})
	}
	errors = append(errors, v.validateTitle(req.Title)...)
	if strings.TrimSpace(req.Text) == "" {
		errors = append(errors, ValidationError{Field: "text", Message: "text is required"})
	}

	return errors
}

func (v *Validator) validateTitle(title string) []ValidationError {
	title = strings.TrimSpace(title)
	if title == "" {
		return []ValidationError{{Field: "title", Message: "title is required"}}
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return []ValidationError{{Field: "title", Message: fmt.Sprintf("title exceeds %d characters", maxTitleLength)}}
	}
	return nil
}

func (v *Validator) validateAddition(postType models.PostType, addition string) []ValidationError {
	if postType.RequiresAddition() && strings.TrimSpace(addition) == "" {
		return []ValidationError{{Field: "addition", Message: fmt.Sprintf("addition is required for %s posts", postType)}}
	}
	if utf8.RuneCountInString(addition) > maxAdditionLength {
		return []ValidationError{{Field: "addition", Message: fmt.Sprintf("addition exceeds %d characters", maxAdditionLength)}}
	}
	return nil
}

func (v *Validator) validateBlogID(blogID string) []ValidationError {
	if blogID != "" && !IsValidUUID(blogID) {
		return []ValidationError{{Field: "blog_id", Message: "invalid UUID format", Value: blogID}}
	}
	return nil
}

// ParseTags splits a comma separated tag string into trimmed, lower-cased,
// de-duplicated tags in order of first appearance
func (v *Validator) ParseTags(raw string) ([]string, error) {
	tags := []string{}
	seen := make(map[string]bool)

	for _, part := range strings.Split(raw, ",") {
		tag := strings.ToLower(strings.TrimSpace(part))
		if tag == "" || seen[tag] {
			continue
		}
		if utf8.RuneCountInString(tag) > maxTagLength {
			return nil, fmt.Errorf("tag %q exceeds %d characters", tag, maxTagLength)
		}
		seen[tag] = true
		tags = append(tags, tag)
	}

	if len(tags) > v.maxTags {
		return nil, fmt.Errorf("at most %d tags allowed (has %d)", v.maxTags, len(tags))
	}
	return tags, nil
}

// ParseAnswers decodes a JSON array of poll answers
func ParseAnswers(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("answers are required")
	}

	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("answers must be a JSON array of strings")
	}

	answers := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if utf8.RuneCountInString(value) > maxAnswerLength {
			return nil, fmt.Errorf("answer exceeds %d characters", maxAnswerLength)
		}
		answers = append(answers, value)
	}

	if len(answers) < models.MinPollAnswers {
		return nil, fmt.Errorf("at least %d answers required", models.MinPollAnswers)
	}
	return answers, nil
}

// IsValidUUID checks if a string is a valid UUID
func IsValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
