// Package md2docx is the core of a markdown editor with live preview and
// DOCX export.
//
// An Editor owns the markdown buffer. Typing is debounced before the
// preview renders; loading a file renders immediately. Math between
// $...$, $$...$$, \(...\) and \[...\] survives markdown conversion and is
// validated and wrapped for client-side typesetting. A malformed
// expression is shown in place without affecting the rest of the preview.
//
// Convert posts the trimmed buffer to a conversion service and hands the
// returned document to a Saver. Outcomes are reported as transient banners
// on a status board.
//
//	editor := md2docx.NewEditor(
//		md2docx.WithConverter(conv),
//		md2docx.WithSaver(&md2docx.DirSaver{Dir: "out"}),
//	)
//	defer editor.Close()
//	editor.OnTextEdited("# Title\n\n$E = mc^2$")
//	result, err := editor.Convert(ctx)
package md2docx
