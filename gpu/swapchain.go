package gpu

// SwapChain is a pair of equally sized surfaces whose read/write roles are
// exchanged by reference once per frame.
type SwapChain struct {
	front *Texture
	back  *Texture

	read *Texture
	out  *Texture

	generation uint64
}

// NewSwapChain allocates both surfaces. Front starts as the read surface.
func (d *Device) NewSwapChain(label string, w, h int) (*SwapChain, error) {
	front, err := d.NewTexture(label+".front", w, h)
	if err != nil {
		return nil, err
	}
	back, err := d.NewTexture(label+".back", w, h)
	if err != nil {
		d.Release(front)
		return nil, err
	}
	return &SwapChain{
		front: front,
		back:  back,
		read:  front,
		out:   back,
	}, nil
}

// Read returns the surface eligible for display and sampling.
func (s *SwapChain) Read() *Texture { return s.read }

// Out returns the surface the next composite writes into.
func (s *SwapChain) Out() *Texture { return s.out }

// Front returns the first surface.
func (s *SwapChain) Front() *Texture { return s.front }

// Back returns the second surface.
func (s *SwapChain) Back() *Texture { return s.back }

// Generation counts completed swaps.
func (s *SwapChain) Generation() uint64 { return s.generation }

// Swap exchanges the read and out roles.
func (s *SwapChain) Swap() {
	s.read, s.out = s.out, s.read
	s.generation++
}

// Release returns both surfaces to the device.
func (s *SwapChain) Release(d *Device) {
	d.Release(s.front)
	d.Release(s.back)
}
