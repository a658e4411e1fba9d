package domain

// KeyPrefix namespaces every key this service reads or indexes. Overridden
// once at startup from configuration, before repositories are constructed.
var KeyPrefix = "rankdex:"
