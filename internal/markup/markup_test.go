package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderPlainPassthrough(t *testing.T) {
	assert.Equal(t, "no math here", RenderPlain("no math here"))
}

func TestRenderPlainInlineSpan(t *testing.T) {
	got := RenderPlain("The formula $E = mc^2$ is famous.")
	assert.Equal(t, "The formula E = mc² is famous.", got)
}

func TestRenderPlainDisplaySpan(t *testing.T) {
	got := RenderPlain("$$x_1 + x_2 = 0$$")
	assert.Equal(t, "x₁ + x₂ = 0", got)
}

func TestRenderPlainSymbols(t *testing.T) {
	got := RenderPlain(`$a \times b \le \pi$`)
	assert.Equal(t, "a × b ≤ π", got)
}

func TestRenderPlainBracedScripts(t *testing.T) {
	got := RenderPlain("$x^{10} + y_{n-1}$")
	assert.Equal(t, "x¹⁰ + yₙ₋₁", got)
}

func TestRenderPlainUnmappableScriptKept(t *testing.T) {
	// 'q' has no unicode subscript form, so the original spelling stays.
	got := RenderPlain("$x_q$")
	assert.Equal(t, "x_q", got)
}

func TestRenderPlainUnterminatedSpanKept(t *testing.T) {
	got := RenderPlain("costs $5 with no closing")
	assert.Equal(t, "costs $5 with no closing", got)
}

func TestRenderPlainMultipleSpans(t *testing.T) {
	got := RenderPlain("$a^2$ plus $b^2$")
	assert.Equal(t, "a² plus b²", got)
}

func TestRenderStylesMath(t *testing.T) {
	// Styled output still contains the converted span.
	got := Render("$x^2$")
	assert.Contains(t, got, "x²")
}

func TestMathSqrt(t *testing.T) {
	assert.Equal(t, "√(a² + b²)", Math(`\sqrt(a^2 + b^2)`))
}
