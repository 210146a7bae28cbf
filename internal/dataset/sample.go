package dataset

// Sample returns a small built-in benchmark so the CLI works without a
// dataset file and tests have realistic fixtures.
func Sample() []QuestionGroup {
	return []QuestionGroup{
		{
			SourceFile: "capitulo_01.txt",
			Title:      "Hipertensão Arterial",
			Questions: []string{
				"A hipertensão arterial é um fator de risco para doenças cardiovasculares.",
				"A hipertensão arterial não tem relação com doenças cardiovasculares.",
				"A medição regular da pressão arterial auxilia no diagnóstico precoce da hipertensão.",
				"O diagnóstico de hipertensão dispensa qualquer medição da pressão arterial.",
			},
		},
		{
			SourceFile: "capitulo_02.txt",
			Title:      "Diabetes Mellitus",
			Questions: []string{
				"O diabetes mellitus tipo 2 está associado à resistência à insulina.",
				"O diabetes mellitus tipo 2 não apresenta qualquer relação com a insulina.",
				"A prática regular de atividade física contribui para o controle glicêmico.",
				"A atividade física é sempre contraindicada para pessoas com diabetes.",
			},
		},
	}
}
