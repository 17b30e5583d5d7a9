package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/bryanchriswhite/focuswm/internal/wm"
)

const rotationMask = randr.RotationRotate0 | randr.RotationRotate90 |
	randr.RotationRotate180 | randr.RotationRotate270

// rotation swaps the rotation bits of current for 0° or 180°, keeping any
// reflection bits.
func rotation(current uint16, flipped bool) uint16 {
	target := uint16(randr.RotationRotate0)
	if flipped {
		target = randr.RotationRotate180
	}
	return current&^rotationMask | target
}

// Render applies the flip flag to the first active CRTC. Clients draw
// themselves, so nothing else happens per frame.
func (e *Engine) Render(_ wm.Window, flipped bool) error {
	if e.closed() {
		return wm.ErrEngineClosed
	}
	if !e.randrOK || flipped == e.flipped {
		return nil
	}
	e.flipped = flipped

	if err := e.applyRotation(flipped); err != nil {
		e.log.Warn().Err(err).Bool("flipped", flipped).Msg("Failed to rotate output")
		return nil
	}
	e.log.Info().Bool("flipped", flipped).Msg("Output rotated")
	return nil
}

func (e *Engine) applyRotation(flipped bool) error {
	res, err := randr.GetScreenResourcesCurrent(e.conn, e.root).Reply()
	if err != nil {
		return fmt.Errorf("failed to get screen resources: %w", err)
	}

	for _, crtc := range res.Crtcs {
		info, err := randr.GetCrtcInfo(e.conn, crtc, res.ConfigTimestamp).Reply()
		if err != nil {
			return fmt.Errorf("failed to get CRTC info: %w", err)
		}
		if info.Mode == 0 || len(info.Outputs) == 0 {
			continue
		}

		reply, err := randr.SetCrtcConfig(e.conn, crtc,
			xproto.TimeCurrentTime, res.ConfigTimestamp,
			info.X, info.Y, info.Mode,
			rotation(info.Rotation, flipped), info.Outputs).Reply()
		if err != nil {
			return fmt.Errorf("failed to set CRTC config: %w", err)
		}
		if reply.Status != randr.SetConfigSuccess {
			return fmt.Errorf("CRTC config rejected with status %d", reply.Status)
		}
		return nil
	}
	return fmt.Errorf("no active CRTC")
}
