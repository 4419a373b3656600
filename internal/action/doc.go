// Package action models the build steps registered during analysis.
//
// An Action is a single external tool invocation with declared inputs and
// outputs. A FileWrite is a file whose content is fully known at analysis
// time (module-mapping files, parameter files) and is materialized by the
// executor before any action that reads it runs. Neither is executed here;
// analysis only describes them, and the Graph assembled from them is what the
// executor runs or the plan command renders.
package action
