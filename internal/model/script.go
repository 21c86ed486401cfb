package model

// ScriptContext carries the values an AI script entry point needs. Not
// every field is meaningful for every entry point: SkillID is only set for
// combatSkillHit, and SourceID is the calling entity's own id except for
// combatSkillHit, where it is the attacker.
type ScriptContext struct {
	TargetID uint32
	SourceID uint32
	SkillID  int32
	Now      int64
	HPRatio  float64
}

// ScriptHandle is the opaque per-entity handle into the scripting host.
// internal/script implements this; model only needs the shape, not the
// Lua machinery behind it.
type ScriptHandle interface {
	// Name returns the AI script's name, for logging.
	Name() string

	// CallAction invokes a plain action entry point ("prepare", "idle",
	// "wander", "aggro", "combat", "combatSkillHit", "prepareSkill") and
	// returns its integer result. defined is false if the script has no
	// such function, in which case result is meaningless and the caller
	// falls back to the built-in behavior.
	CallAction(entryPoint string, ctx ScriptContext) (result int32, defined bool, err error)

	// CallTarget invokes the "target" entry point, which is allowed to
	// pick one of the candidate entity ids. defined is false if the
	// script has no "target" function.
	CallTarget(candidates []uint32, ctx ScriptContext) (pickedID uint32, defined bool, err error)
}
