package model

// Package model defines the domain data structures shared across the app:
// format descriptors and their ordering, format selectors, download and merge
// tasks, and task status enums.
