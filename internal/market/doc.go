// Package market attaches stock price context to extracted stories.
//
// Quotes are human-readable strings rather than numbers: a price with its
// daily change such as "$950.00 (+1.50%)", or one of the sentinels below.
package market
