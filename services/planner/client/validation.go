package client

import (
	"strings"

	"content-planner/services/planner/internal/entity"
)

// ValidationError lists the form fields that keep a request from being sent.
type ValidationError struct {
	Fields entity.FieldErrors
}

func (e *ValidationError) Error() string {
	messages := make([]string, 0, len(e.Fields))
	for _, field := range []string{"title", "content", "channelIds"} {
		if msg, ok := e.Fields[field]; ok {
			messages = append(messages, msg)
		}
	}
	return strings.Join(messages, "; ")
}

// ValidatePostInput checks the post form: a title and content that are not
// blank and at least one channel.
func ValidatePostInput(input entity.CreatePostInput) error {
	errs := entity.FieldErrors{}
	if strings.TrimSpace(input.Title) == "" {
		errs.Add("title", "Title is required")
	}
	if strings.TrimSpace(input.Content) == "" {
		errs.Add("content", "Content is required")
	}
	if len(input.ChannelIDs) == 0 {
		errs.Add("channelIds", "At least one channel must be selected")
	}
	if errs.Empty() {
		return nil
	}
	return &ValidationError{Fields: errs}
}
