package display

// Subscriber receives RenderInfo samples from a Sampler.
//
// All methods are called from the sampling goroutine, one at a time.
// A slow subscriber stalls the display.
type Subscriber interface {
	// OnStart is called once before the first sample.
	OnStart()

	// OnRenderInfo is called every tick with a fresh sample.
	OnRenderInfo(info RenderInfo)

	// OnSaveScreen is called instead of OnRenderInfo while the selected
	// renderer has been idle longer than the screensaver timeout.
	OnSaveScreen()

	// OnExit is called once when the sampler stops.
	OnExit()
}
