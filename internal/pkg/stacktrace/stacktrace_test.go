package stacktrace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternalPaths(t *testing.T) {
	stack := []byte(`goroutine 7 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x5e
github.com/shandysiswandi/gopasscode/internal/pkg/router.middlewareRecoverer.func1.1()
	/src/gopasscode/internal/pkg/router/middleware_recover.go:23 +0x8a
panic({0x1, 0x2})
	/usr/local/go/src/runtime/panic.go:785 +0x132
github.com/shandysiswandi/gopasscode/internal/passcode/usecase.(*Usecase).Verify(...)
	/src/gopasscode/internal/passcode/usecase/verify.go:40
`)

	assert.Equal(t, []string{
		"internal/pkg/router/middleware_recover.go:23",
		"internal/passcode/usecase/verify.go:40",
	}, InternalPaths(stack))
}

func TestInternalPaths_None(t *testing.T) {
	assert.Empty(t, InternalPaths([]byte("goroutine 1 [running]:\nmain.main()\n\t/src/main.go:3 +0x1\n")))
}
