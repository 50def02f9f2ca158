package game

// Layout-space values below are in pixels for a 1920x1080 reference screen and
// are multiplied by Layout's scale factors before use.
const (
	JointCost         = 100   // per joint placed
	JointCapacity     = 500   // structural budget added per joint
	ObjectCost        = 10    // per girder or circle
	StressThreshold   = 500.0 // joints pulling harder than this break
	MinCapacity       = 1
	StressIndicatorPx = 6.0

	TrainCars        = 3
	TrainSpawnX      = 1600.0
	TrainSpawnY      = 490.0
	TrainCarWidth    = 100.0
	TrainCarHeight   = 50.0
	TrainWheelRadius = 20.0
	TrainCarGap      = 7.0 // between neighbouring cars
	TrainDensity     = 10.0
	TrainRestitution = 0.16
	TrainFriction    = 0.5
	TrainMotorRate   = 5.0 // rad/s, wheels roll toward -x

	TrackMaxSamples = 2000 // per tracked body
)

// Balance holds the scoring values. The defaults are the constants above.
type Balance struct {
	JointCost       int     `yaml:"joint_cost"`
	JointCapacity   int     `yaml:"joint_capacity"`
	ObjectCost      int     `yaml:"object_cost"`
	StressThreshold float64 `yaml:"stress_threshold"`
}

func DefaultBalance() Balance {
	return Balance{
		JointCost:       JointCost,
		JointCapacity:   JointCapacity,
		ObjectCost:      ObjectCost,
		StressThreshold: StressThreshold,
	}
}

// TrainSpec describes the train in layout pixels.
type TrainSpec struct {
	Cars        int     `yaml:"cars"`
	SpawnX      float64 `yaml:"spawn_x"`
	SpawnY      float64 `yaml:"spawn_y"`
	CarWidth    float64 `yaml:"car_width"`
	CarHeight   float64 `yaml:"car_height"`
	WheelRadius float64 `yaml:"wheel_radius"`
	Gap         float64 `yaml:"gap"`
	Density     float64 `yaml:"density"`
	Restitution float64 `yaml:"restitution"`
	Friction    float64 `yaml:"friction"`
	MotorRate   float64 `yaml:"motor_rate"`
}

func DefaultTrain() TrainSpec {
	return TrainSpec{
		Cars:        TrainCars,
		SpawnX:      TrainSpawnX,
		SpawnY:      TrainSpawnY,
		CarWidth:    TrainCarWidth,
		CarHeight:   TrainCarHeight,
		WheelRadius: TrainWheelRadius,
		Gap:         TrainCarGap,
		Density:     TrainDensity,
		Restitution: TrainRestitution,
		Friction:    TrainFriction,
		MotorRate:   TrainMotorRate,
	}
}
