package handler

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkordes/nightspot/internal/domain"
)

func TestUnwrapMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"bare", fmt.Errorf("%w: name is required", domain.ErrValidation), "name is required"},
		{
			"wrapped",
			fmt.Errorf("service.MatchService.HandleArrival: %w",
				fmt.Errorf("%w: openness must be between 0 and 5", domain.ErrValidation)),
			"openness must be between 0 and 5",
		},
		{"other", errors.New("something else"), "something else"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, unwrapMessage(tt.err))
		})
	}
}
