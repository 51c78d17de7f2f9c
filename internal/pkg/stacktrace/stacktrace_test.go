package stacktrace_test

import (
	"testing"

	"github.com/shandysiswandi/mfacore/internal/pkg/stacktrace"
	"github.com/stretchr/testify/assert"
)

func TestInternalPaths(t *testing.T) {
	t.Parallel()

	stack := []byte(`goroutine 7 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x5e
github.com/shandysiswandi/mfacore/internal/pkg/goroutine.(*Manager).Go.func1()
	/src/mfacore/internal/pkg/goroutine/goroutine.go:84 +0x1c5
panic({0x10, 0x20})
	/usr/local/go/src/runtime/panic.go:785 +0x132
github.com/shandysiswandi/mfacore/internal/identity/usecase.(*Usecase).publish(...)
	/src/mfacore/internal/identity/usecase/usecase.go:120
`)

	assert.Equal(t, []string{
		"internal/pkg/goroutine/goroutine.go:84",
		"internal/identity/usecase/usecase.go:120",
	}, stacktrace.InternalPaths(stack))
	assert.Empty(t, stacktrace.InternalPaths([]byte("no frames here")))
}
