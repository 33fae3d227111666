package latex

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "removes delimiters and whitespace",
			input: `$ x^2 + y^2 $`,
			want:  `x^2+y^2`,
		},
		{
			name:  "display delimiters",
			input: `\[ \frac{1}{2} \]`,
			want:  `\frac{1}{2}`,
		},
		{
			name:  "strips font commands",
			input: `\mathbf{x} + \mathcal{L}`,
			want:  `{x}+{L}`,
		},
		{
			name:  "frac variants unify",
			input: `\dfrac{a}{b} = \tfrac{a}{b}`,
			want:  `\frac{a}{b}=\frac{a}{b}`,
		},
		{
			name:  "symbol aliases",
			input: `a \le b \ne c`,
			want:  `a\leq b\neq c`,
		},
		{
			name:  "alias does not rewrite longer command",
			input: `a \leq b`,
			want:  `a\leq b`,
		},
		{
			name:  "command keeps boundary before variable",
			input: `\int_0^\infty e^{-x} dx`,
			want:  `\int_0^\infty e^{-x}dx`,
		},
		{
			name:  "norm bars unify",
			input: `\Vert x \Vert = \| x \|`,
			want:  `||x||=||x||`,
		},
		{
			name:  "transpose variants unify",
			input: `A^H B^\dagger C^T`,
			want:  `A^TB^TC^T`,
		},
		{
			name:  "matrix environments unify",
			input: `\begin{pmatrix} a \end{pmatrix}`,
			want:  `\begin{matrix}a\end{matrix}`,
		},
		{
			name:  "left right stripped",
			input: `\left( x \right)`,
			want:  `(x)`,
		},
		{
			name:  "left does not chew arrow",
			input: `x \to y`,
			want:  `x\rightarrow y`,
		},
		{
			name:  "redundant braces collapse",
			input: `{{x+1}}`,
			want:  `{x+1}`,
		},
		{
			name:  "empty input",
			input: ``,
			want:  ``,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_ReportsEnhancement(t *testing.T) {
	if _, changed := Normalize(`$x + y$`); changed {
		t.Error("plain delimiter/whitespace removal should not count as enhanced normalization")
	}
	if _, changed := Normalize(`x \le y`); !changed {
		t.Error("alias rewriting should count as enhanced normalization")
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	a, _ := Normalize(`\sum_{i=1}^n \dfrac{x_i}{n}`)
	b, _ := Normalize(`\sum_{i=1}^n \tfrac{x_i}{n}`)
	if a != b {
		t.Errorf("equivalent variants should normalize identically: %q vs %q", a, b)
	}
}
