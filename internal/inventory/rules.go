package inventory

import "github.com/nao1215/savestat/internal/model"

// DisplayRule maps a base class name to a display name.
// A rule applies exactly when Class equals the base name, and as a fallback
// when either string contains the other.
type DisplayRule struct {
	Class   string
	Display string
}

// CategoryRule assigns a category to display names containing any keyword,
// compared case-insensitively.
type CategoryRule struct {
	Category model.Category
	Keywords []string
}

// defaultDisplayRules is ordered for the substring fallback: within a family
// the more specific class comes first (PipelinePumpMk2 before PipelinePump
// before Pipeline).
var defaultDisplayRules = []DisplayRule{
	// Production
	{"Build_ConstructorMk1", "Constructor"},
	{"Build_SmelterMk1", "Smelter"},
	{"Build_FoundryMk1", "Foundry"},
	{"Build_AssemblerMk1", "Assembler"},
	{"Build_ManufacturerMk1", "Manufacturer"},
	{"Build_OilRefinery", "Refinery"},
	{"Build_Packager", "Packager"},
	{"Build_Blender", "Blender"},
	{"Build_HadronCollider", "Particle Accelerator"},
	{"Build_QuantumEncoder", "Quantum Encoder"},
	{"Build_Converter", "Converter"},

	// Extraction
	{"Build_MinerMk1", "Miner Mk.1"},
	{"Build_MinerMk2", "Miner Mk.2"},
	{"Build_MinerMk3", "Miner Mk.3"},
	{"Build_WaterPump", "Water Extractor"},
	{"Build_OilPump", "Oil Extractor"},
	{"Build_FrackingExtractor", "Resource Well Extractor"},
	{"Build_FrackingSmasher", "Resource Well Pressurizer"},

	// Generation
	{"Build_GeneratorBiomass", "Biomass Burner"},
	{"Build_GeneratorCoal", "Coal Generator"},
	{"Build_GeneratorFuel", "Fuel Generator"},
	{"Build_GeneratorNuclear", "Nuclear Power Plant"},
	{"Build_GeneratorGeoThermal", "Geothermal Generator"},

	// Belts and lifts
	{"Build_ConveyorBeltMk1", "Conveyor Belt Mk.1"},
	{"Build_ConveyorBeltMk2", "Conveyor Belt Mk.2"},
	{"Build_ConveyorBeltMk3", "Conveyor Belt Mk.3"},
	{"Build_ConveyorBeltMk4", "Conveyor Belt Mk.4"},
	{"Build_ConveyorBeltMk5", "Conveyor Belt Mk.5"},
	{"Build_ConveyorBeltMk6", "Conveyor Belt Mk.6"},
	{"Build_ConveyorLiftMk1", "Conveyor Lift Mk.1"},
	{"Build_ConveyorLiftMk2", "Conveyor Lift Mk.2"},
	{"Build_ConveyorLiftMk3", "Conveyor Lift Mk.3"},
	{"Build_ConveyorLiftMk4", "Conveyor Lift Mk.4"},
	{"Build_ConveyorLiftMk5", "Conveyor Lift Mk.5"},
	{"Build_ConveyorLiftMk6", "Conveyor Lift Mk.6"},
	{"Build_ConveyorAttachmentSplitterSmart", "Smart Splitter"},
	{"Build_ConveyorAttachmentSplitterProgrammable", "Programmable Splitter"},
	{"Build_ConveyorAttachmentSplitter", "Splitter"},
	{"Build_ConveyorAttachmentMerger", "Merger"},
	{"Build_ConveyorPole", "Conveyor Pole"},

	// Pipes
	{"Build_PipelinePumpMk2", "Pipeline Pump Mk.2"},
	{"Build_PipelinePump", "Pipeline Pump Mk.1"},
	{"Build_PipelineSupport", "Pipeline Support"},
	{"Build_PipelineJunction_Cross", "Pipeline Junction Cross"},
	{"Build_Pipeline", "Pipeline"},
	{"Build_Valve", "Valve"},

	// Storage
	{"Build_StorageContainerMk1", "Storage Container"},
	{"Build_StorageContainerMk2", "Industrial Storage Container"},
	{"Build_IndustrialTank", "Industrial Fluid Buffer"},
	{"Build_PipeStorageTank", "Fluid Buffer"},

	// Power
	{"Build_PowerLine", "Power Line"},
	{"Build_PowerPoleMk1", "Power Pole Mk.1"},
	{"Build_PowerPoleMk2", "Power Pole Mk.2"},
	{"Build_PowerPoleMk3", "Power Pole Mk.3"},
	{"Build_PowerStorage", "Power Storage"},
	{"Build_PriorityPowerSwitch", "Priority Power Switch"},
	{"Build_PowerSwitch", "Power Switch"},

	// Stations and rails
	{"Build_TrainStation", "Train Station"},
	{"Build_RailroadTrack", "Railway"},
	{"Build_TrainDockingStation", "Freight Platform"},
	{"Build_DroneStation", "Drone Port"},
	{"Build_TruckStation", "Truck Station"},

	// Vehicles
	{"BP_Tractor", "Tractor"},
	{"BP_Truck", "Truck"},
	{"BP_Explorer", "Explorer"},
	{"BP_Locomotive", "Locomotive"},
	{"BP_FreightWagon", "Freight Car"},
	{"BP_DroneTransport", "Drone"},
	{"BP_GolfcartGold", "Golden Factory Cart"},
	{"BP_Golfcart", "Factory Cart"},

	// Special buildings
	{"Build_SpaceElevator", "Space Elevator"},
	{"Build_HubTerminal", "HUB"},
	{"Build_WorkBench", "Craft Bench"},
	{"Build_Workshop", "Equipment Workshop"},
	{"Build_RadarTower", "Radar Tower"},
	{"Build_ResourceSinkShop", "AWESOME Shop"},
	{"Build_ResourceSink", "AWESOME Sink"},

	// FicsIt-Networks mod
	{"Build_ComputerCase", "FicsIt Computer"},
	{"Build_NetworkRouter", "Network Router"},
	{"Build_Screen_Driver", "Screen Driver"},
	{"Build_GPU_T1", "GPU T1"},
}

// defaultCategoryRules is checked top to bottom; the first rule with a
// matching keyword wins. Transport precedes vehicles so that "Truck Station"
// is not claimed by the "Truck" keyword, and power precedes storage with
// full-name storage keywords so that "Power Storage" is power.
var defaultCategoryRules = []CategoryRule{
	{model.CategoryMachines, []string{
		"Constructor", "Smelter", "Foundry", "Assembler", "Manufacturer",
		"Refinery", "Packager", "Blender", "Particle Accelerator",
		"Quantum Encoder", "Converter",
	}},
	{model.CategoryExtractors, []string{
		"Miner", "Water Extractor", "Oil Extractor", "Resource Well",
	}},
	{model.CategoryGenerators, []string{
		"Biomass Burner", "Coal Generator", "Fuel Generator",
		"Nuclear Power Plant", "Geothermal Generator",
	}},
	{model.CategoryPower, []string{
		"Power Line", "Power Pole", "Power Storage", "Power Switch",
	}},
	{model.CategoryLogistics, []string{
		"Conveyor", "Splitter", "Merger", "Pipeline", "Valve",
	}},
	{model.CategoryStorage, []string{
		"Storage Container", "Fluid Buffer",
	}},
	{model.CategoryTransport, []string{
		"Train Station", "Railway", "Freight Platform", "Drone Port", "Truck Station",
	}},
	{model.CategoryVehicles, []string{
		"Tractor", "Truck", "Explorer", "Locomotive", "Freight Car",
		"Drone", "Factory Cart", "Cyber Wagon",
	}},
}

// DefaultDisplayRules returns a copy of the built-in display rules.
func DefaultDisplayRules() []DisplayRule {
	out := make([]DisplayRule, len(defaultDisplayRules))
	copy(out, defaultDisplayRules)
	return out
}

// DefaultCategoryRules returns a deep copy of the built-in category rules.
func DefaultCategoryRules() []CategoryRule {
	out := make([]CategoryRule, len(defaultCategoryRules))
	for i, r := range defaultCategoryRules {
		out[i] = CategoryRule{
			Category: r.Category,
			Keywords: append([]string(nil), r.Keywords...),
		}
	}
	return out
}
