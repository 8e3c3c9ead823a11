// Package models defines the core domain models for the wage ledger.
//
// # Models
//
//   - Employee: a daily-wage worker and the wage owed per day worked
//   - AttendanceRecord: one worked day for one employee
//   - Payment: money handed to an employee, with the days it settled
//
// # Design Principles
//
// 1. **Plain data**: models carry no behavior beyond value helpers; rules live in
//    the calculator and ledger packages
// 2. **Avoid circular references**: relationships are ID strings, never pointers
// 3. **Fixed-point money**: every amount is an Amount in minor currency units
// 4. **Day granularity**: attendance dates are Date values with no time of day
//
// # JSON Shape
//
// Models are persisted as JSON documents. Field names are part of the persisted
// record schema; changing one requires a new step in the migrate package.
package models
