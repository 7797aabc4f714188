// Package beverage holds the closed set of beverage types and the static
// water-debt table used to offset dehydrating drinks.
//
// The debt of a drink is linear in its volume: every 50 mL consumed requires
// WaterDebtRatio(type) mL of extra water. Fractional steps scale linearly, so a
// 25 mL coffee carries 100 mL of debt.
package beverage
