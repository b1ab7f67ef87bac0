// Package domain models per-settlement hydrological and demographic readings
// and the allocation arithmetic built on top of them.
//
// # Data Source
//
// Readings arrive as one tabular row per monitored settlement, exported by the
// district telemetry aggregator. Column names follow the aggregator's CSV
// schema: village_name, population, rainfall_current, rainfall_average,
// groundwater_depth, historical_groundwater, storage_capacity,
// current_storage, latitude, longitude. The village name doubles as the
// settlement identifier and must be unique within a dataset.
//
// # Units and Sign Conventions
//
// Rainfall is millimeters, groundwater depth is meters below ground level,
// storage volumes are liters, coordinates are WGS-84 degrees.
//
// Rainfall deviation:
//
//	current - historical average. Negative values are a drought signal and
//	are deliberately not clamped.
//
// Groundwater trend:
//
//	historical depth - current depth. Depth increases downward, so a
//	negative trend means the depth has grown and the water table has
//	dropped, i.e. a worsening condition. The sign convention is
//	load-bearing; downstream consumers read the trend directly.
//
// Normalized population:
//
//	min-max scaled over the full settlement set, range [0,1]. When every
//	settlement has the same population the value is defined as 0 for all
//	rows rather than dividing by zero.
//
// # Stress Categories
//
// The stress score (a probability in [0,1]) maps to a four-level label used
// by downstream consumers: <0.3 Low, <0.5 Moderate, <0.7 High, else
// Critical. Thresholds are configuration, not domain logic; the defaults
// match the district's operational criteria.
//
// # Allocation Arithmetic
//
// Demand = population × per-capita daily need × horizon days. Shortfall is
// demand minus current storage, floored at zero. Vehicle counts are the exact
// ceiling of shortfall over tanker capacity, with a small epsilon so
// floating-point noise near an integer boundary never conjures a spurious
// extra tanker. See [VehiclesRequired].
//
// # Data Quality
//
// A row with missing, non-numeric, or out-of-range required fields fails on
// its own: it is excluded from scoring and ranking and reported as a
// [RowIssue], never aborting the batch. Current storage exceeding capacity is
// clamped to capacity and flagged rather than accepted as a negative deficit.
// Duplicate identifiers are a dataset-level defect: every row bearing a
// duplicated name is excluded until the source resolves the collision.
package domain
