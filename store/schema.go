package store

const schema = `
CREATE TABLE IF NOT EXISTS experiment (
	id INTEGER PRIMARY KEY,
	short_name TEXT NOT NULL,
	number_of_samples INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS bioassay (
	id INTEGER PRIMARY KEY,
	experiment_id INTEGER NOT NULL REFERENCES experiment(id),
	name TEXT NOT NULL,
	is_outlier INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS quantitation_type (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	description TEXT,
	general_type TEXT NOT NULL,
	standard_type TEXT NOT NULL,
	representation TEXT NOT NULL,
	is_preferred INTEGER NOT NULL DEFAULT 0,
	is_masked_preferred INTEGER NOT NULL DEFAULT 0,
	is_ratio INTEGER NOT NULL DEFAULT 0,
	is_background INTEGER NOT NULL DEFAULT 0,
	is_background_subtracted INTEGER NOT NULL DEFAULT 0,
	is_normalized INTEGER NOT NULL DEFAULT 0,
	is_batch_corrected INTEGER NOT NULL DEFAULT 0,
	is_recomputed_from_raw_data INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS experiment_quantitation_type (
	experiment_id INTEGER NOT NULL REFERENCES experiment(id),
	quantitation_type_id INTEGER NOT NULL REFERENCES quantitation_type(id),
	PRIMARY KEY (experiment_id, quantitation_type_id)
);

CREATE TABLE IF NOT EXISTS bioassay_dimension (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT,
	merged INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS dimension_bioassay (
	dimension_id INTEGER NOT NULL REFERENCES bioassay_dimension(id),
	position INTEGER NOT NULL,
	bioassay_id INTEGER NOT NULL REFERENCES bioassay(id),
	PRIMARY KEY (dimension_id, position)
);

CREATE TABLE IF NOT EXISTS array_design (
	id INTEGER PRIMARY KEY,
	short_name TEXT NOT NULL,
	technology_type TEXT
);

CREATE TABLE IF NOT EXISTS design_element (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	array_design_id INTEGER REFERENCES array_design(id)
);

CREATE TABLE IF NOT EXISTS vector (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	experiment_id INTEGER NOT NULL REFERENCES experiment(id),
	design_element_id INTEGER NOT NULL REFERENCES design_element(id),
	quantitation_type_id INTEGER NOT NULL REFERENCES quantitation_type(id),
	dimension_id INTEGER NOT NULL REFERENCES bioassay_dimension(id),
	data BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS vector_experiment ON vector (experiment_id, quantitation_type_id);
`
