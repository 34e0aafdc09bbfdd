package scoring

import "conf-review/internal/model"

// ComputeTechnicalConfidence 按会议权重加权五项评分：Σ score_i * weight_i / 100。
// 调用方负责校验评分范围与权重总和；权重和为 100、评分在 [1,10] 时结果也在 [1,10]。
func ComputeTechnicalConfidence(s model.Scores, w model.Weights) float64 {
	return float64(s.Originality)*w.Originality/model.WeightTotal +
		float64(s.TechnicalQuality)*w.TechnicalQuality/model.WeightTotal +
		float64(s.Significance)*w.Significance/model.WeightTotal +
		float64(s.Clarity)*w.Clarity/model.WeightTotal +
		float64(s.Relevance)*w.Relevance/model.WeightTotal
}
