package scheduler

import "math"

// CoefficientMode 系数语义
// 数据集之间口径不一，必须显式配置，不允许从数据形态猜测
type CoefficientMode string

const (
	// ModeHoursPerUnit 系数 = 每单位工程量所需工时
	ModeHoursPerUnit CoefficientMode = "hours_per_unit"
	// ModeUnitsPerDay 系数 = 每人每日产量（生产率）
	ModeUnitsPerDay CoefficientMode = "units_per_day"
)

// DefaultDailyHours 每日工作小时数假定
const DefaultDailyHours = 8.0

// Duration 一个工种在一条预算行上的工期
type Duration struct {
	Hours float64 // 所需总工时
	Days  int     // 占用天数，不足一天按一天计
}

// Calculator 工期计算器
type Calculator struct {
	mode       CoefficientMode
	dailyHours float64
}

// NewCalculator 创建工期计算器
// mode 为空时按 hours_per_unit 处理；dailyHours <= 0 时用默认 8 小时
func NewCalculator(mode CoefficientMode, dailyHours float64) *Calculator {
	if mode == "" {
		mode = ModeHoursPerUnit
	}
	if dailyHours <= 0 {
		dailyHours = DefaultDailyHours
	}
	return &Calculator{mode: mode, dailyHours: dailyHours}
}

// Compute 计算工期
// 数量或系数非正时返回零工期与 false：该行跳过记录，不中断整批
func (c *Calculator) Compute(quantity, coefficient float64) (Duration, bool) {
	if quantity <= 0 || coefficient <= 0 {
		return Duration{}, false
	}

	switch c.mode {
	case ModeUnitsPerDay:
		days := int(math.Ceil(quantity / coefficient))
		return Duration{
			Hours: float64(days) * c.dailyHours,
			Days:  days,
		}, true
	default:
		hours := quantity * coefficient
		return Duration{
			Hours: hours,
			Days:  DaysFromHours(hours, c.dailyHours),
		}, true
	}
}

// DaysFromHours 工时换算天数，向上取整：不足一天也占用整天
func DaysFromHours(hours, dailyHours float64) int {
	if hours <= 0 {
		return 0
	}
	if dailyHours <= 0 {
		dailyHours = DefaultDailyHours
	}
	return int(math.Ceil(hours / dailyHours))
}
