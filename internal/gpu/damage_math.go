package gpu

import "math"

// Damage-number animation constants. shaders/damage_text.wgsl carries the
// same values; EvalDamage below is the reference implementation the shader
// is tested against.
const (
	// DamageEpsilon widens the lifetime window by one 60 Hz frame on each
	// side, so a glyph spawned mid-frame is neither dropped at birth nor
	// cut off one frame early.
	DamageEpsilon = 1.0 / 60.0

	// DamageGravity is the downward acceleration in logical px/s^2 applied
	// to every glyph's vertical motion.
	DamageGravity = 600.0

	// damageGrowEnd and damageShrinkStart split the lifetime into the
	// grow, hold, and shrink phases of the scale envelope.
	damageGrowEnd     = 0.2
	damageShrinkStart = 0.7

	// damagePopSeconds is the length of the initial pop in absolute
	// seconds, independent of the glyph's duration.
	damagePopSeconds = 0.1

	// damageDrag is the horizontal velocity decay constant (1/s).
	damageDrag = 4.0
)

// DamageSample is the animation state of a glyph at one instant, as the
// vertex stage computes it.
type DamageSample struct {
	// Visible is false outside [-epsilon, duration+epsilon]; the glyph
	// sits at the off-screen sentinel and nothing else is meaningful.
	Visible bool

	// DX, DY is the motion displacement from the spawn origin in logical
	// pixels.
	DX, DY float64

	// Scale is the envelope times the pop factor. Multiply by the glyph's
	// base scale for the rendered size.
	Scale float64

	// Alpha is the fade factor in [0,1]. Multiply by the spawn alpha.
	Alpha float64

	// Flash is the flash tint weight in [0,1], nonzero during the pop.
	Flash float64
}

// EvalDamage evaluates the damage-number animation at elapsed seconds after
// spawn for a glyph with the given lifetime and initial velocity.
func EvalDamage(elapsed, duration, velX, velY float64) DamageSample {
	if elapsed < -DamageEpsilon || elapsed > duration+DamageEpsilon {
		return DamageSample{}
	}

	t := elapsed / duration
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	var envelope float64
	switch {
	case t < damageGrowEnd:
		envelope = 0.3 + (1.0-0.3)*(t/damageGrowEnd)
	case t < damageShrinkStart:
		envelope = 1.0
	default:
		envelope = 1.0 - (t-damageShrinkStart)/(1.0-damageShrinkStart)
	}

	popT := elapsed / damagePopSeconds
	if popT < 0 {
		popT = 0
	} else if popT > 1 {
		popT = 1
	}
	pop := math.Sin(popT * math.Pi)

	te := math.Max(elapsed, 0)
	dx := velX * (1 - math.Exp(-damageDrag*te)) / damageDrag
	dy := velY*te + 0.5*DamageGravity*te*te

	fade := 1.0
	if t >= damageShrinkStart {
		fade = 1.0 - (t-damageShrinkStart)/(1.0-damageShrinkStart)
	}

	return DamageSample{
		Visible: true,
		DX:      dx,
		DY:      dy,
		Scale:   envelope * (1.0 + 0.3*pop),
		Alpha:   fade,
		Flash:   pop,
	}
}
