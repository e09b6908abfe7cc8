package md2docx_test

import (
	"context"
	"fmt"

	md2docx "github.com/alnah/go-md2docx"
)

func ExampleEditor() {
	editor := md2docx.NewEditor()
	defer editor.Close()

	editor.OnFileLoaded("Euler: $e^{i\\pi} + 1 = 0$", "euler.md")
	fmt.Println(editor.State())
	fmt.Println(editor.Surface().Snapshot().Kind)

	_, err := editor.Convert(context.Background())
	fmt.Println(err)
	// Output:
	// editing
	// content
	// no conversion backend configured
}
