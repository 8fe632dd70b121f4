package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sampleRequest struct {
	Title string `json:"title" validate:"notblank,max=10"`
	Days  int    `json:"days" validate:"min=-3650,max=3650"`
}

func TestValidateStruct(t *testing.T) {
	assert.Nil(t, ValidateStruct(sampleRequest{Title: "ok", Days: 5}))

	fields := ValidateStruct(sampleRequest{Title: "   ", Days: 4000})
	assert.Len(t, fields, 2)

	byField := map[string]string{}
	for _, f := range fields {
		byField[f.Field] = f.Error
	}
	assert.Equal(t, "this field cannot be blank", byField["title"])
	assert.Contains(t, byField["days"], "days")
}

type nestedRequest struct {
	Items []sampleRequest `json:"items" validate:"dive"`
}

func TestValidateStructNestedPath(t *testing.T) {
	fields := ValidateStruct(nestedRequest{Items: []sampleRequest{{Title: "ok"}, {Title: ""}}})
	if assert.Len(t, fields, 1) {
		assert.Equal(t, "items[1].title", fields[0].Field)
	}
}
