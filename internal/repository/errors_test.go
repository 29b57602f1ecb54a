package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/28Syed/Greencart-ecommerce/internal/domain"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestMapError_TransientLabels(t *testing.T) {
	err := mongo.CommandError{Code: 112, Name: "WriteConflict", Labels: []string{labelTransientTransaction}}

	mapped := mapError(err)

	assert.ErrorIs(t, mapped, domain.ErrTransientStore)
	var cmdErr mongo.CommandError
	assert.True(t, errors.As(mapped, &cmdErr), "driver error must stay in the chain")
}

func TestMapError_PassesThroughOthers(t *testing.T) {
	assert.NoError(t, mapError(nil))
	assert.ErrorIs(t, mapError(domain.ErrProductNotFound), domain.ErrProductNotFound)
	assert.NotErrorIs(t, mapError(domain.ErrProductNotFound), domain.ErrTransientStore)
	assert.NotErrorIs(t, mapError(context.Canceled), domain.ErrTransientStore)

	plain := mongo.CommandError{Code: 2, Name: "BadValue"}
	assert.NotErrorIs(t, mapError(plain), domain.ErrTransientStore)
}

func TestMapError_AlreadyTransient(t *testing.T) {
	err := fmt.Errorf("%w: retry", domain.ErrTransientStore)
	assert.Equal(t, err, mapError(err))
}

func TestWrap(t *testing.T) {
	err := wrap("get order", mongo.CommandError{Labels: []string{labelUnknownCommitResult}})

	assert.ErrorIs(t, err, domain.ErrTransientStore)
	assert.Contains(t, err.Error(), "failed to get order")
}
