// File: internal/common/validation.go
package common

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	k8svalidation "k8s.io/apimachinery/pkg/util/validation"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags on gin's validator.
// It is safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("dns1123", func(fl validator.FieldLevel) bool {
			return IsDNS1123Label(fl.Field().String())
		})
	})
}

// IsDNS1123Label reports whether s is a valid Kubernetes object name label.
func IsDNS1123Label(s string) bool {
	return len(k8svalidation.IsDNS1123Label(s)) == 0
}
