package domain

import "math"

// NormCDF 标准正态分布累积分布函数
// 使用 erfc 形式，尾部精度优于 0.5*(1+erf(x/√2))
func NormCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}
