// Package arx renders ARX documents: markdown-like text with embedded tags
// and an optional YAML front matter block.
//
// A tag is wrapped in <ARX and />, chosen so that mustache-style braces in
// the surrounding text pass through untouched:
//
//	Hello, <ARX [[user.name | "friend"]] />!
//
// # Basic Usage
//
// Create an engine and render a document against data:
//
//	engine := arx.MustNew()
//	out, err := engine.RenderString(ctx, "Hello, <ARX [[user]] />!", arx.RenderOptions{
//	    Primary: []map[string]any{{"user": "Alice"}},
//	})
//	// out: "Hello, Alice!"
//
// # Tag Syntax
//
//	<ARX [[path]] />                 variable
//	<ARX [[path | "default"]] />     variable with a fallback
//	<ARX [[path]]:new />             variable resolved only in the "new" phase
//	<ARX [[#path]] />                "true" or "false"
//	<ARX [[#path]]: /> ... <ARX : /> conditional block
//	<ARX [[^path]]: /> ... <ARX : /> negated conditional block
//	<ARX ]: />                       else branch of a conditional
//	<ARX [[*items as it, i]]: />     loop; [[.]] is the current item
//	<ARX @"parts/header" {k: v} />   include with an inline context
//
// Paths are dotted; digit segments index lists. Paths starting with env.
// read the process environment when the engine enables it.
//
// # Context Layers
//
// Front matter input defaults < primary data < secondary data < the
// augmentation step. The augmentation step is an Augmenter, such as a
// ScriptAugmenter that pipes the context through an external program.
//
// # Phases
//
// Variables tagged with a phase the render does not select are emitted
// verbatim, so a later render in another phase can resolve them.
//
// # Error Handling
//
// Every error wraps a sentinel such as ErrInvalidTag, ErrIncludeCycle or
// ErrMissingRequiredInput and carries position details as metadata:
//
//	if errors.Is(err, arx.ErrUnclosedBlock) {
//	    // err names the opening tag and its line
//	}
//
// # Configuration
//
// Customize the engine with functional options:
//
//	engine, _ := arx.New(
//	    arx.WithSource(arx.NewFileSource("templates")),
//	    arx.WithScripts(true),
//	    arx.WithEnvironment(true),
//	    arx.WithLogger(logger),
//	)
package arx
