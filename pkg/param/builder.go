package param

// Builder provides a fluent API for constructing Values, mirroring the
// teacher's param.Builder but targeting the new Scale-based Value instead
// of a fixed Min/Max pair.
type Builder struct {
	name         string
	shortName    string
	unit         string
	scale        Scale
	defaultPlain float64
	flags        uint32
	fmt          func(float64) string
	parse        func(string) (float64, error)
}

// New starts building a Value named name, defaulting to a Linear [0,1]
// scale until overridden by a scale-family method.
func New(name string) *Builder {
	return &Builder{
		name:  name,
		scale: Linear{Min: 0, Max: 1},
		flags: CanAutomate,
	}
}

// ShortName sets the abbreviated display name.
func (b *Builder) ShortName(name string) *Builder {
	b.shortName = name
	return b
}

// Unit sets the display unit suffix ("Hz", "dB", "ms"...).
func (b *Builder) Unit(unit string) *Builder {
	b.unit = unit
	return b
}

// Linear configures a Linear scale over [min, max].
func (b *Builder) Linear(min, max float64) *Builder {
	b.scale = Linear{Min: min, Max: max}
	return b
}

// Quadratic configures a Quadratic scale over [min, max].
func (b *Builder) Quadratic(min, max float64) *Builder {
	b.scale = Quadratic{Min: min, Max: max}
	return b
}

// Cubic configures a Cubic scale over [min, max].
func (b *Builder) Cubic(min, max float64) *Builder {
	b.scale = Cubic{Min: min, Max: max}
	return b
}

// Quartic configures a Quartic scale over [min, max].
func (b *Builder) Quartic(min, max float64) *Builder {
	b.scale = Quartic{Min: min, Max: max}
	return b
}

// SquareRoot configures a SquareRoot scale over [min, max].
func (b *Builder) SquareRoot(min, max float64) *Builder {
	b.scale = SquareRoot{Min: min, Max: max}
	return b
}

// Exponential configures an Exponential (log-frequency) scale over
// [min, max], both of which must be strictly positive.
func (b *Builder) Exponential(min, max float64) *Builder {
	b.scale = Exponential{Min: min, Max: max}
	return b
}

// Indexed configures an Indexed scale with count discrete steps.
func (b *Builder) Indexed(count int) *Builder {
	b.scale = Indexed{Count: count}
	return b
}

// Default sets the default value in plain engineering units.
func (b *Builder) Default(plain float64) *Builder {
	b.defaultPlain = plain
	return b
}

// ReadOnly marks the Value as non-automatable (status outputs).
func (b *Builder) ReadOnly() *Builder {
	b.flags |= IsReadOnly
	b.flags &^= CanAutomate
	return b
}

// Hidden marks the Value as hidden from any enumeration UI collaborator.
func (b *Builder) Hidden() *Builder {
	b.flags |= IsHidden
	return b
}

// Formatter installs custom display formatting/parsing.
func (b *Builder) Formatter(format func(float64) string, parse func(string) (float64, error)) *Builder {
	b.fmt = format
	b.parse = parse
	return b
}

// Build constructs the configured Value.
func (b *Builder) Build() *Value {
	v := NewValue(b.name, b.scale, b.defaultPlain)
	if b.shortName != "" {
		v.ShortName = b.shortName
	} else {
		v.ShortName = b.name
	}
	v.Unit = b.unit
	v.Flags = b.flags
	if b.fmt != nil || b.parse != nil {
		v.SetFormatter(b.fmt, b.parse)
	}
	return v
}
