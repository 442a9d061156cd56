package shared

// NormalizeLimit 归一化列表条数参数。0 表示使用默认值，上限防止全量拉取。
func NormalizeLimit(limit, fallback, max int) int {
	if limit <= 0 {
		limit = fallback
	}
	if max > 0 && limit > max {
		limit = max
	}
	return limit
}
