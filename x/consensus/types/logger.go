package types

// SubSystem tags log lines with the component that produced them.
type SubSystem int

const (
	Weights SubSystem = iota
	Epoch
	Reputation
	Collusion
	Rewards
	Registry
	Server
)

var subSystemNames = map[SubSystem]string{
	Weights:    "weights",
	Epoch:      "epoch",
	Reputation: "reputation",
	Collusion:  "collusion",
	Rewards:    "rewards",
	Registry:   "registry",
	Server:     "server",
}

func (s SubSystem) String() string {
	if name, ok := subSystemNames[s]; ok {
		return name
	}
	return "unknown"
}

// ConsensusLogger is the logging surface handed to the pure calculators so
// they can report without depending on the keeper.
type ConsensusLogger interface {
	LogInfo(msg string, subSystem SubSystem, keyvals ...interface{})
	LogError(msg string, subSystem SubSystem, keyvals ...interface{})
	LogWarn(msg string, subSystem SubSystem, keyvals ...interface{})
	LogDebug(msg string, subSystem SubSystem, keyvals ...interface{})
}
