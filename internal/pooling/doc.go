// Package pooling implements 2D max and average pooling over [N,C,H,W]
// feature maps: the operator description (Config), the output geometry,
// and the host reference forward and backward passes.
//
// Max pooling records the winning offset of every output cell in an
// IndexMap; the backward pass uses that map to route each gradient to
// exactly one input cell. Average pooling recomputes the window geometry in
// the backward pass and spreads each gradient evenly over the window.
//
// Example:
//
//	cfg := pooling.NewConfig(pooling.Max, pooling.Size2{H: 2, W: 2}, pooling.Size2{H: 2, W: 2}, pooling.Size2{})
//	ref := pooling.NewReference(parallel.DefaultConfig())
//	out, idx, err := ref.Forward(input, cfg)
//	if err != nil {
//	    return err
//	}
//	gradIn, err := ref.Backward(input, gradOut, out, cfg, idx)
package pooling
