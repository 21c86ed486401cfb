package netproto

// Opcode identifies one outbound packet kind. Values are internal to this
// core; the edge process that owns the real client wire format remaps them.
type Opcode byte

const (
	OpMove Opcode = iota
	OpRotate
	OpStopMovement
	OpEnemyActivated
	OpBattleStarted
	OpBattleStopped
	OpAddStatusEffect
	OpRemoveStatusEffect
	OpTimeTrialUpdate
	OpTimeTrialEnd
	OpDemonSoloUpdate
	OpDemonSoloEnd
	OpTimeLimitUpdate
	OpTimeLimitEnd
	OpFixPosition
)

// Packet is anything that can encode itself to bytes for broadcast.
type Packet interface {
	Encode() []byte
}

// Move reports an entity's new movement leg: destination, origin, speed,
// and the two relative-time fields (when the leg started, when it ends).
type Move struct {
	EntityID  uint32
	DestX     float32
	DestY     float32
	OrigX     float32
	OrigY     float32
	Speed     float32
	NowTicks   int64
	DestTicks int64
}

func (p Move) Encode() []byte {
	w := Get()
	defer w.Put()
	w.WriteByte(byte(OpMove))
	w.WriteUint32(p.EntityID)
	w.WriteFloat32(p.DestX)
	w.WriteFloat32(p.DestY)
	w.WriteFloat32(p.OrigX)
	w.WriteFloat32(p.OrigY)
	w.WriteFloat32(p.Speed)
	w.WriteInt64(p.NowTicks)
	w.WriteInt64(p.DestTicks)
	return w.Bytes()
}

// Rotate reports an entity turning in place without translating.
type Rotate struct {
	EntityID  uint32
	DestRot   float32
	NowTicks   int64
	DestTicks int64
}

func (p Rotate) Encode() []byte {
	w := Get()
	defer w.Put()
	w.WriteByte(byte(OpRotate))
	w.WriteUint32(p.EntityID)
	w.WriteFloat32(p.DestRot)
	w.WriteInt64(p.NowTicks)
	w.WriteInt64(p.DestTicks)
	return w.Bytes()
}

// StopMovement reports an entity coming to rest at a point.
type StopMovement struct {
	EntityID  uint32
	DestX     float32
	DestY     float32
	DestTicks int64
}

func (p StopMovement) Encode() []byte {
	w := Get()
	defer w.Put()
	w.WriteByte(byte(OpStopMovement))
	w.WriteUint32(p.EntityID)
	w.WriteFloat32(p.DestX)
	w.WriteFloat32(p.DestY)
	w.WriteInt64(p.DestTicks)
	return w.Bytes()
}

// EnemyActivated reports an enemy acquiring a target and entering combat.
type EnemyActivated struct {
	EntityID       uint32
	TargetEntityID uint32
}

func (p EnemyActivated) Encode() []byte {
	w := Get()
	defer w.Put()
	w.WriteByte(byte(OpEnemyActivated))
	w.WriteUint32(p.EntityID)
	w.WriteUint32(p.TargetEntityID)
	return w.Bytes()
}

// BattleStarted/BattleStopped flip an entity's client-side combat stance.
type BattleStarted struct {
	EntityID uint32
	Speed    float32
}

func (p BattleStarted) Encode() []byte {
	w := Get()
	defer w.Put()
	w.WriteByte(byte(OpBattleStarted))
	w.WriteUint32(p.EntityID)
	w.WriteFloat32(p.Speed)
	return w.Bytes()
}

type BattleStopped struct {
	EntityID uint32
	Speed    float32
}

func (p BattleStopped) Encode() []byte {
	w := Get()
	defer w.Put()
	w.WriteByte(byte(OpBattleStopped))
	w.WriteUint32(p.EntityID)
	w.WriteFloat32(p.Speed)
	return w.Bytes()
}

// StatusEffectEntry is one row of an Add/RemoveStatusEffect packet.
type StatusEffectEntry struct {
	EffectType     int32
	ExpirationTicks int64 // ignored by RemoveStatusEffect's encoding
	Stack          int32
}

type AddStatusEffect struct {
	EntityID uint32
	Effects  []StatusEffectEntry
}

func (p AddStatusEffect) Encode() []byte {
	w := Get()
	defer w.Put()
	w.WriteByte(byte(OpAddStatusEffect))
	w.WriteUint32(p.EntityID)
	w.WriteInt32(int32(len(p.Effects)))
	for _, e := range p.Effects {
		w.WriteInt32(e.EffectType)
		w.WriteInt64(e.ExpirationTicks)
		w.WriteInt32(e.Stack)
	}
	return w.Bytes()
}

type RemoveStatusEffect struct {
	EntityID uint32
	Types    []int32
}

func (p RemoveStatusEffect) Encode() []byte {
	w := Get()
	defer w.Put()
	w.WriteByte(byte(OpRemoveStatusEffect))
	w.WriteUint32(p.EntityID)
	w.WriteInt32(int32(len(p.Types)))
	for _, t := range p.Types {
		w.WriteInt32(t)
	}
	return w.Bytes()
}

// instanceTimerPacket is the shared shape of the six timer-update/-end
// packets; each variant's Encode just stamps a different opcode.
type instanceTimerPacket struct {
	op          Opcode
	InstanceID  int32
	ElapsedSec  int64
	RemainingSec int64
	Rank        int32 // set by TimeTrialEnd/DemonSoloEnd; 0 for updates and TimeLimitEnd
}

func (p instanceTimerPacket) Encode() []byte {
	w := Get()
	defer w.Put()
	w.WriteByte(byte(p.op))
	w.WriteInt32(p.InstanceID)
	w.WriteInt64(p.ElapsedSec)
	w.WriteInt64(p.RemainingSec)
	w.WriteInt32(p.Rank)
	return w.Bytes()
}

func TimeTrialUpdate(instanceID int32, elapsed, remaining int64) Packet {
	return instanceTimerPacket{op: OpTimeTrialUpdate, InstanceID: instanceID, ElapsedSec: elapsed, RemainingSec: remaining}
}

func TimeTrialEnd(instanceID int32, elapsed int64, rank int32) Packet {
	return instanceTimerPacket{op: OpTimeTrialEnd, InstanceID: instanceID, ElapsedSec: elapsed, Rank: rank}
}

func DemonSoloUpdate(instanceID int32, elapsed, remaining int64) Packet {
	return instanceTimerPacket{op: OpDemonSoloUpdate, InstanceID: instanceID, ElapsedSec: elapsed, RemainingSec: remaining}
}

func DemonSoloEnd(instanceID int32, elapsed int64, rank int32) Packet {
	return instanceTimerPacket{op: OpDemonSoloEnd, InstanceID: instanceID, ElapsedSec: elapsed, Rank: rank}
}

func TimeLimitUpdate(instanceID int32, elapsed, remaining int64) Packet {
	return instanceTimerPacket{op: OpTimeLimitUpdate, InstanceID: instanceID, ElapsedSec: elapsed, RemainingSec: remaining}
}

func TimeLimitEnd(instanceID int32, elapsed int64) Packet {
	return instanceTimerPacket{op: OpTimeLimitEnd, InstanceID: instanceID, ElapsedSec: elapsed}
}

// FixPosition snaps a client's displayed position, used after zone-in and
// after server-side corrections.
type FixPosition struct {
	EntityID uint32
	X, Y     float32
	Rotation float32
	NowTicks int64
	EndTicks int64
}

func (p FixPosition) Encode() []byte {
	w := Get()
	defer w.Put()
	w.WriteByte(byte(OpFixPosition))
	w.WriteUint32(p.EntityID)
	w.WriteFloat32(p.X)
	w.WriteFloat32(p.Y)
	w.WriteFloat32(p.Rotation)
	w.WriteInt64(p.NowTicks)
	w.WriteInt64(p.EndTicks)
	return w.Bytes()
}

var (
	_ Packet = Move{}
	_ Packet = Rotate{}
	_ Packet = StopMovement{}
	_ Packet = EnemyActivated{}
	_ Packet = BattleStarted{}
	_ Packet = BattleStopped{}
	_ Packet = AddStatusEffect{}
	_ Packet = RemoveStatusEffect{}
	_ Packet = FixPosition{}
	_ Packet = instanceTimerPacket{}
)
