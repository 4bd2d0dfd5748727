// Package interp turns the raw output of a pacman transaction into UI events.
//
// Output arrives as arbitrary chunks on stdout and stderr. Each channel has its
// own Chunker that reassembles complete lines; Segment splits lines that carry
// several merged progress redraws. Every logical line is then passed through an
// ordered list of rules (see Classifier) that clean it, recognize progress
// brackets, phase headers, package counts and removals, and hand the surviving
// text to the markup emitter. The emitter deduplicates against the run's
// emitted-lines set, picks a colour by keyword precedence and inserts the
// (i/N) counter when numbered progress is on.
//
// Interpreter wires those pieces to a Sink:
//
//	it := interp.New(interp.Config{Context: interp.ContextInstall}, func(ev interp.Event) {
//		fmt.Println(ev.Kind, ev.Text)
//	})
//	it.Started()
//	it.Feed(interp.Stdout, chunk)
//	it.Finished(exitCode, interp.NormalExit, lock)
//
// Nothing in this package blocks or spawns goroutines; callers deliver chunks
// from a single goroutine in arrival order.
package interp
