/*
Package algorithm implements the closed growth and level-cost algorithm
families a GameConfig selects by identifier: flat/linear/exponential for
stat growth, and flat/free/linear_cost/mixed_linear_cost for the
resource cost of leveling up. Registry.Catalog exposes a self-describing
view of every registered algorithm and its parameters, consumed by the
`GET /:instanceId/algorithms` read view.
*/
package algorithm
