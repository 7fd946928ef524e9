package affinity

import (
	"encoding/json"
	"fmt"
	"math"
)

// Network 前馈评分网络：11 → 16 → 8 → 1，隐层 ReLU，输出层 Sigmoid
type Network struct {
	W1 [][]float64 `json:"w1"` // [FeatureCount][16]
	B1 []float64   `json:"b1"` // [16]
	W2 [][]float64 `json:"w2"` // [16][8]
	B2 []float64   `json:"b2"` // [8]
	W3 [][]float64 `json:"w3"` // [8][1]
	B3 []float64   `json:"b3"` // [1]
}

// 网络层宽度
const (
	hidden1Size = 16
	hidden2Size = 8
)

// ParseNetwork 从JSON字节解析网络权重
func ParseNetwork(data []byte) (*Network, error) {
	var n Network
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("解析权重失败: %w", err)
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return &n, nil
}

// Validate 校验权重矩阵维度
func (n *Network) Validate() error {
	if len(n.W1) != FeatureCount {
		return fmt.Errorf("W1 行数应为 %d，实际 %d", FeatureCount, len(n.W1))
	}
	for i, row := range n.W1 {
		if len(row) != hidden1Size {
			return fmt.Errorf("W1[%d] 列数应为 %d，实际 %d", i, hidden1Size, len(row))
		}
	}
	if len(n.B1) != hidden1Size {
		return fmt.Errorf("B1 长度应为 %d，实际 %d", hidden1Size, len(n.B1))
	}
	if len(n.W2) != hidden1Size {
		return fmt.Errorf("W2 行数应为 %d，实际 %d", hidden1Size, len(n.W2))
	}
	for i, row := range n.W2 {
		if len(row) != hidden2Size {
			return fmt.Errorf("W2[%d] 列数应为 %d，实际 %d", i, hidden2Size, len(row))
		}
	}
	if len(n.B2) != hidden2Size {
		return fmt.Errorf("B2 长度应为 %d，实际 %d", hidden2Size, len(n.B2))
	}
	if len(n.W3) != hidden2Size {
		return fmt.Errorf("W3 行数应为 %d，实际 %d", hidden2Size, len(n.W3))
	}
	for i, row := range n.W3 {
		if len(row) != 1 {
			return fmt.Errorf("W3[%d] 列数应为 1，实际 %d", i, len(row))
		}
	}
	if len(n.B3) != 1 {
		return fmt.Errorf("B3 长度应为 1，实际 %d", len(n.B3))
	}
	return nil
}

// Forward 单样本前向传播
func (n *Network) Forward(fv FeatureVector) float64 {
	var h1 [hidden1Size]float64
	for j := 0; j < hidden1Size; j++ {
		sum := n.B1[j]
		for i := 0; i < FeatureCount; i++ {
			sum += fv[i] * n.W1[i][j]
		}
		h1[j] = relu(sum)
	}

	var h2 [hidden2Size]float64
	for j := 0; j < hidden2Size; j++ {
		sum := n.B2[j]
		for i := 0; i < hidden1Size; i++ {
			sum += h1[i] * n.W2[i][j]
		}
		h2[j] = relu(sum)
	}

	out := n.B3[0]
	for i := 0; i < hidden2Size; i++ {
		out += h2[i] * n.W3[i][0]
	}
	return sigmoid(out)
}

// ForwardBatch 批量前向传播：单次遍历全部样本，而非逐对调用
func (n *Network) ForwardBatch(batch []FeatureVector) []float64 {
	out := make([]float64, len(batch))
	for i, fv := range batch {
		out[i] = n.Forward(fv)
	}
	return out
}

func relu(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
